package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/studyshare/backend/internal/ctxkeys"
	"github.com/studyshare/backend/internal/model"
	"github.com/studyshare/backend/internal/response"
	"github.com/studyshare/backend/internal/service"
)

var errMalformedHeader = errors.New("malformed authorization header")

// TokenVerifier turns a bearer credential into a principal
type TokenVerifier interface {
	VerifyToken(token string) (*model.Principal, error)
}

// Authenticate reads the Authorization bearer token and adds the principal to
// the context when it verifies. Requests without a valid token continue
// anonymously; RequireAuth decides whether that is acceptable.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(header)
			if !ok {
				ctx := ctxkeys.WithAuthError(r.Context(), errMalformedHeader)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			principal, err := verifier.VerifyToken(token)
			if err != nil {
				ctx := ctxkeys.WithAuthError(r.Context(), err)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			ctx := ctxkeys.WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests with 401 before the handler runs,
// so an upload body is never read for an unauthenticated caller.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.Principal(r.Context()) != nil {
			next(w, r)
			return
		}

		message := "Unauthorized - No token provided"
		if err := ctxkeys.AuthError(r.Context()); err != nil {
			message = "Unauthorized - Invalid token"
			var svcErr *service.Error
			if errors.As(err, &svcErr) {
				message = svcErr.Message
			}
		}

		w.Header().Set("WWW-Authenticate", `Bearer realm="studyshare"`)
		response.Error(w, http.StatusUnauthorized, message)
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
