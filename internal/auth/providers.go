package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ErrProviderNotConfigured is returned when no OAuth client is set up
var ErrProviderNotConfigured = errors.New("oauth provider not configured")

// OAuthUserInfo is the identity an OAuth provider vouches for
type OAuthUserInfo struct {
	ProviderID    string
	Email         string
	EmailVerified bool
	DisplayName   string
	AccessToken   string
	RefreshToken  string
}

// Domain returns the lower-cased part of the email after the @
func (u *OAuthUserInfo) Domain() string {
	at := strings.LastIndexByte(u.Email, '@')
	if at < 0 {
		return ""
	}
	return strings.ToLower(u.Email[at+1:])
}

// IdentityProvider signs students in through an external account
type IdentityProvider interface {
	Name() Provider
	AuthCodeURL(state string) string
	Identify(ctx context.Context, code string) (*OAuthUserInfo, error)
}

// ProviderConfig holds the credentials for an OAuth provider
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
}

// GoogleProvider implements IdentityProvider with Google accounts
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

// NewGoogleProvider returns nil when the credentials are incomplete
func NewGoogleProvider(cfg ProviderConfig, callbackBaseURL string) *GoogleProvider {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil
	}
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  strings.TrimRight(callbackBaseURL, "/") + "/api/auth/callback/google",
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
	}
}

func (g *GoogleProvider) Name() Provider {
	return ProviderGoogle
}

// AuthCodeURL returns the consent page URL for state
func (g *GoogleProvider) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// Identify exchanges the authorization code and fetches the account profile
func (g *GoogleProvider) Identify(ctx context.Context, code string) (*OAuthUserInfo, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("google API error: %s", string(body))
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	if info.Email == "" {
		return nil, errors.New("email not provided by Google")
	}

	displayName := info.Name
	if displayName == "" {
		displayName = info.Email
	}
	return &OAuthUserInfo{
		ProviderID:    info.ID,
		Email:         strings.ToLower(info.Email),
		EmailVerified: info.VerifiedEmail,
		DisplayName:   displayName,
		AccessToken:   token.AccessToken,
		RefreshToken:  token.RefreshToken,
	}, nil
}
