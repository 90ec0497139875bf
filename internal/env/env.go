package env

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func GetInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func GetDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GetList splits a comma separated value, dropping blanks
func GetList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Server
const (
	EnvPort               = "PORT"
	EnvDatabaseDir        = "DATABASE_DIR"
	EnvCORSAllowedOrigins = "CORS_ALLOWED_ORIGINS"
)

// Meal selection
const (
	EnvQuotaTablePath            = "QUOTA_TABLE_PATH"
	EnvSelectionStrictVersioning = "SELECTION_STRICT_VERSIONING"
	EnvActivityRetention         = "ACTIVITY_RETENTION"
)

// Auth-related environment variable keys
const (
	// OAuth Providers
	EnvGoogleClientID     = "GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret = "GOOGLE_CLIENT_SECRET"

	// Auth Configuration
	EnvAuthCallbackBaseURL = "AUTH_CALLBACK_BASE_URL"
	EnvSessionDuration     = "SESSION_DURATION"
	EnvSecureCookies       = "SECURE_COOKIES"
)

// Meal item images (Cloudflare R2, S3 compatible)
const (
	EnvR2Endpoint      = "R2_ENDPOINT"
	EnvR2AccessKey     = "R2_ACCESS_KEY"
	EnvR2SecretKey     = "R2_SECRET_KEY"
	EnvR2BucketName    = "R2_BUCKET_NAME"
	EnvR2PublicBaseURL = "R2_PUBLIC_BASE_URL"
)

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
