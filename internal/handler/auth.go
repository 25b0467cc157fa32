package handler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/studyshare/backend/internal/config"
	"github.com/studyshare/backend/internal/model"
	"github.com/studyshare/backend/internal/response"
	"github.com/studyshare/backend/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	oauthStateCookie = "oauth_state"
	googleUserInfo   = "https://www.googleapis.com/oauth2/v2/userinfo"
)

type authHandler struct {
	authService       *service.AuthService
	googleOAuthConfig *oauth2.Config
	googleEnabled     bool
	userInfoURL       string
	secureCookies     bool
	errors            errorResponder
}

func NewAuthHandler(authService *service.AuthService, cfg *config.Config) *authHandler {
	return &authHandler{
		authService: authService,
		googleOAuthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.AppURL + "/auth/google/callback",
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		googleEnabled: cfg.GoogleEnabled(),
		userInfoURL:   googleUserInfo,
		secureCookies: cfg.IsProduction(),
		errors:        errorResponder{isDev: cfg.IsDevelopment()},
	}
}

type tokenResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

// GoogleAuth redirects to the Google consent screen
func (h *authHandler) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	if !h.googleEnabled {
		response.Error(w, http.StatusServiceUnavailable, "Google sign-in is not configured")
		return
	}

	state, err := generateOAuthState()
	if err != nil {
		h.errors.write(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})

	http.Redirect(w, r, h.googleOAuthConfig.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback exchanges the code, resolves the local user and returns a
// bearer token for the API.
func (h *authHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || cookie.Value != state {
		slog.Warn("google oauth state validation failed", "error", err)
		response.Error(w, http.StatusUnauthorized, "OAuth authentication failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("google oauth callback missing code")
		response.Error(w, http.StatusBadRequest, "OAuth authentication failed")
		return
	}

	token, err := h.googleOAuthConfig.Exchange(r.Context(), code)
	if err != nil {
		slog.Error("google oauth token exchange failed", "error", err)
		response.Error(w, http.StatusUnauthorized, "OAuth authentication failed")
		return
	}

	client := h.googleOAuthConfig.Client(r.Context(), token)
	resp, err := client.Get(h.userInfoURL)
	if err != nil {
		slog.Error("failed to get google user info", "error", err)
		response.Error(w, http.StatusBadGateway, "OAuth authentication failed")
		return
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		slog.Error("google user info request failed", "status", resp.StatusCode)
		response.Error(w, http.StatusBadGateway, "OAuth authentication failed")
		return
	}

	var userInfo struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	err = json.NewDecoder(resp.Body).Decode(&userInfo)
	if err != nil {
		slog.Error("failed to decode google user info", "error", err)
		response.Error(w, http.StatusBadGateway, "OAuth authentication failed")
		return
	}

	user, err := h.authService.AuthenticateGoogle(r.Context(), userInfo.Email, userInfo.Name)
	if err != nil {
		h.errors.write(w, r, err)
		return
	}

	jwtToken, expiresAt, err := h.authService.IssueToken(user)
	if err != nil {
		h.errors.write(w, r, err)
		return
	}

	slog.Info("user logged in with google oauth", "user_id", user.ID)
	response.JSON(w, http.StatusOK, tokenResponse{
		Token:     jwtToken,
		ExpiresAt: expiresAt,
		User:      user,
	})
}

// generateOAuthState creates a random state token for OAuth CSRF protection
func generateOAuthState() (string, error) {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
