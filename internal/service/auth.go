package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/studyshare/backend/internal/model"
)

var (
	ErrMissingToken = errors.New("no token provided")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the bearer token payload; sub is the principal id.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type AuthService struct {
	userService *UserService
	secret      []byte
	expiry      time.Duration
	now         func() time.Time
}

func NewAuthService(userService *UserService, secret string, expiry time.Duration) *AuthService {
	return &AuthService{
		userService: userService,
		secret:      []byte(secret),
		expiry:      expiry,
		now:         time.Now,
	}
}

// IssueToken signs a bearer token for user and returns it with its expiry.
func (s *AuthService) IssueToken(user *model.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.expiry)

	claims := Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if user.Name != nil {
		claims.Name = *user.Name
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// VerifyToken checks signature and expiry and returns the principal.
func (s *AuthService) VerifyToken(tokenString string) (*model.Principal, error) {
	if tokenString == "" {
		return nil, newError(KindUnauthenticated, "Unauthorized - No token provided", ErrMissingToken)
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, newError(KindUnauthenticated, "Unauthorized - Token expired", ErrTokenExpired)
	}
	if err != nil {
		return nil, newError(KindUnauthenticated, "Unauthorized - Invalid token", fmt.Errorf("%w: %v", ErrInvalidToken, err))
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, newError(KindUnauthenticated, "Unauthorized - Invalid token", ErrInvalidToken)
	}

	return &model.Principal{
		ID:    claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
	}, nil
}

// AuthenticateGoogle maps a verified Google identity to a local user.
func (s *AuthService) AuthenticateGoogle(ctx context.Context, email, name string) (*model.User, error) {
	if email == "" {
		return nil, newError(KindUnauthenticated, "Google account has no email", nil)
	}
	return s.userService.EnsureOAuthUser(ctx, email, name, "google")
}
