package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/studyshare/backend/internal/ctxkeys"
	"github.com/studyshare/backend/internal/model"
	"github.com/studyshare/backend/internal/service"
)

// stubVerifier accepts exactly one token
type stubVerifier struct {
	valid string
	err   error
}

func (v stubVerifier) VerifyToken(token string) (*model.Principal, error) {
	if token == v.valid {
		return &model.Principal{ID: "u1", Email: "ann@example.com"}, nil
	}
	return nil, v.err
}

func protected(verifier TokenVerifier, called *bool) http.Handler {
	return Authenticate(verifier)(RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		principal := ctxkeys.Principal(r.Context())
		w.Write([]byte(principal.ID))
	}))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body.Error
}

func TestRequireAuth(t *testing.T) {
	verifier := stubVerifier{
		valid: "good",
		err:   &service.Error{Kind: service.KindUnauthenticated, Message: "Unauthorized - Token expired"},
	}

	tests := []struct {
		name        string
		header      string
		wantStatus  int
		wantMessage string
	}{
		{"no header", "", http.StatusUnauthorized, "Unauthorized - No token provided"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Unauthorized - Invalid token"},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, "Unauthorized - Invalid token"},
		{"rejected token", "Bearer bad", http.StatusUnauthorized, "Unauthorized - Token expired"},
		{"valid token", "Bearer good", http.StatusOK, ""},
		{"case insensitive scheme", "bearer good", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			req := httptest.NewRequest(http.MethodPost, "/files", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			protected(verifier, &called).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus == http.StatusOK {
				if !called || rec.Body.String() != "u1" {
					t.Fatalf("expected handler to run with principal, body %q", rec.Body.String())
				}
				return
			}
			if called {
				t.Fatal("handler must not run for an unauthenticated request")
			}
			if got := decodeError(t, rec); got != tt.wantMessage {
				t.Fatalf("expected %q, got %q", tt.wantMessage, got)
			}
			if rec.Header().Get("WWW-Authenticate") == "" {
				t.Fatal("expected WWW-Authenticate header")
			}
		})
	}
}

func TestAuthenticateLeavesPublicRoutesOpen(t *testing.T) {
	handler := Authenticate(stubVerifier{valid: "good"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.Principal(r.Context()) != nil {
			t.Error("expected anonymous request")
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/files", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected public route to run, got %d", rec.Code)
	}
}
