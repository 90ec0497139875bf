package main

import (
	"MessAPI/internal/auth"
	"MessAPI/internal/common"
	"MessAPI/internal/databases"
	"MessAPI/internal/env"
	"MessAPI/internal/meal"
	"MessAPI/internal/v0/catalog"
	v0common "MessAPI/internal/v0/common"
	"MessAPI/internal/v0/period"
	"MessAPI/internal/v0/selection"
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbDir := env.GetEnv(env.EnvDatabaseDir, "./internal/databases")

	// Auth database
	authDB, err := databases.OpenAndMigrate(dbDir, databases.Auth)
	if err != nil {
		log.Fatal(err)
	}
	defer authDB.Close()

	// Mess database: catalog, periods, selections and activity
	messDB, err := databases.OpenAndMigrate(dbDir, databases.Mess)
	if err != nil {
		log.Fatal(err)
	}
	defer messDB.Close()

	quotas, err := meal.LoadQuotaTable(env.GetEnv(env.EnvQuotaTablePath, ""))
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Loaded %d quota rows", len(quotas.Rows()))

	// Initialize auth components
	authRepo := auth.NewRepository(authDB)
	stateStore := auth.NewOAuthStateStore(authRepo)
	sessionStore := auth.NewSessionStore(
		authRepo,
		env.GetDuration(env.EnvSessionDuration, auth.DefaultSessionDuration),
		env.GetBool(env.EnvSecureCookies, false),
	)
	tokenStore := auth.NewTokenStore(authRepo)

	var provider auth.IdentityProvider
	if google := auth.NewGoogleProvider(
		auth.ProviderConfig{
			ClientID:     env.GetEnv(env.EnvGoogleClientID, ""),
			ClientSecret: env.GetEnv(env.EnvGoogleClientSecret, ""),
		},
		env.GetEnv(env.EnvAuthCallbackBaseURL, "http://localhost:9237"),
	); google != nil {
		provider = google
	} else {
		log.Println("Warning: Google OAuth is not configured, sign-in is disabled")
	}

	authHandler := auth.NewHandler(authRepo, provider, stateStore, sessionStore, tokenStore)
	adminHandler := auth.NewAdminHandler(authRepo, tokenStore, sessionStore)
	authMiddleware := auth.NewMiddleware(tokenStore, sessionStore)

	janitor := auth.NewJanitor(sessionStore, stateStore, time.Hour)
	janitor.Start(ctx)

	// Catalog and periods
	catalogRepo := catalog.NewRepository(messDB)
	var images catalog.ImageStore
	r2 := catalog.R2Config{
		Endpoint:      env.GetEnv(env.EnvR2Endpoint, ""),
		AccessKey:     env.GetEnv(env.EnvR2AccessKey, ""),
		SecretKey:     env.GetEnv(env.EnvR2SecretKey, ""),
		Bucket:        env.GetEnv(env.EnvR2BucketName, ""),
		PublicBaseURL: env.GetEnv(env.EnvR2PublicBaseURL, ""),
	}
	if r2.Enabled() {
		store, err := catalog.NewR2Store(ctx, r2)
		if err != nil {
			log.Fatal("R2 init failed: ", err)
		}
		images = store
	} else {
		log.Println("Warning: R2 is not configured, image uploads are disabled")
	}
	catalogHandler := catalog.NewHandler(catalogRepo, quotas, images)

	periodRepo := period.NewRepository(messDB)
	periodHandler := period.NewHandler(periodRepo)

	// Selections
	activity := selection.NewActivityRecorder(messDB, env.GetDuration(env.EnvActivityRetention, 90*24*time.Hour))
	activity.Start(ctx)
	hub := selection.NewHub()
	selectionService := selection.NewService(
		meal.NewEvaluator(quotas),
		selection.NewRepository(messDB),
		catalogRepo,
		periodRepo,
		authRepo,
		activity,
		hub,
		env.GetBool(env.EnvSelectionStrictVersioning, false),
	)
	selectionHandler := selection.NewHandler(selectionService, activity, hub)

	router := gin.Default()
	router.Use(v0common.RequestID())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     env.GetList(env.EnvCORSAllowedOrigins, []string{"http://localhost:3000", "http://localhost:5173"}),
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Global routes
	global := router.Group("/api")
	common.RegisterRoutes(global, common.NewHandler(map[string]*sql.DB{
		databases.Auth: authDB,
		databases.Mess: messDB,
	}))

	// Auth routes (public + session-protected + admin)
	auth.RegisterRoutes(global, authHandler, adminHandler, authMiddleware)

	admin := router.Group("/api/admin")

	// v0 API routes
	v0Group := router.Group("/api/v0")
	{
		period.RegisterRoutes(v0Group, admin, periodHandler, authMiddleware)
		catalog.RegisterRoutes(v0Group, admin, catalogHandler, authMiddleware)
		selection.RegisterRoutes(v0Group, admin, selectionHandler, authMiddleware)
	}

	srv := &http.Server{
		Addr:    ":" + env.GetEnv(env.EnvPort, "9237"),
		Handler: router,
	}

	// Graceful shutdown handling
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")

		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown: %v", err)
		}
	}()

	log.Printf("Listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}

	cancel()
	janitor.Stop()
	activity.Stop()
}

/*
This project is the backend API for the campus mess meal-selection service. Students pick their meals for each selection period within the mess quotas, and admins manage the catalog, periods and accounts.
MessAPI Copyright (C) 2025 OpenSourceDUTH
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
