package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/upb/permguard/rbac"
)

var (
	// ErrInvalidToken is returned when the token is malformed or its signature does not verify
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrMissingSubject is returned when a token or user has no subject
	ErrMissingSubject = errors.New("missing subject")

	// ErrMissingSecret is returned when the authenticator has no signing secret
	ErrMissingSecret = errors.New("missing signing secret")
)

// DefaultCookieName is read when no Authorization header is present
const DefaultCookieName = "session"

// Claims represents the claims carried by a session token
type Claims struct {
	jwt.RegisteredClaims
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role"`
	Status string `json:"status,omitempty"`
}

// JWTConfig holds configuration for JWTAuthenticator
type JWTConfig struct {
	Secret     []byte
	Issuer     string
	Audience   string
	CookieName string
	TTL        time.Duration
}

// JWTAuthenticator issues and validates HS256 session tokens
type JWTAuthenticator struct {
	secret     []byte
	issuer     string
	audience   string
	cookieName string
	ttl        time.Duration
}

// NewJWTAuthenticator creates a new JWTAuthenticator
func NewJWTAuthenticator(config JWTConfig) *JWTAuthenticator {
	if config.TTL == 0 {
		config.TTL = 1 * time.Hour
	}
	if config.CookieName == "" {
		config.CookieName = DefaultCookieName
	}

	return &JWTAuthenticator{
		secret:     config.Secret,
		issuer:     config.Issuer,
		audience:   config.Audience,
		cookieName: config.CookieName,
		ttl:        config.TTL,
	}
}

// Issue signs a token for user
func (a *JWTAuthenticator) Issue(user User) (string, error) {
	if len(a.secret) == 0 {
		return "", ErrMissingSecret
	}
	if user.ID == "" {
		return "", ErrMissingSubject
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
		Email:  user.Email,
		Name:   user.Name,
		Role:   string(user.Role),
		Status: user.Status,
	}
	if a.audience != "" {
		claims.Audience = jwt.ClaimStrings{a.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate verifies tokenString and returns the session it describes
func (a *JWTAuthenticator) Validate(ctx context.Context, tokenString string) (*Session, error) {
	if len(a.secret) == 0 {
		return nil, ErrMissingSecret
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	s := &Session{
		User: &User{
			ID:     claims.Subject,
			Role:   rbac.Role(claims.Role),
			Status: claims.Status,
			Email:  claims.Email,
			Name:   claims.Name,
		},
	}
	if claims.ExpiresAt != nil {
		s.Expires = claims.ExpiresAt.Time
	}
	return s, nil
}

// Accessor returns a session accessor reading the token from the request in ctx.
// A request without a token yields an anonymous (nil) session.
func (a *JWTAuthenticator) Accessor() Accessor {
	return func(ctx context.Context) (*Session, error) {
		r := RequestFromContext(ctx)
		if r == nil {
			return nil, nil
		}
		token := a.extractToken(r)
		if token == "" {
			return nil, nil
		}
		return a.Validate(ctx, token)
	}
}

// CookieName returns the cookie read by Accessor
func (a *JWTAuthenticator) CookieName() string {
	return a.cookieName
}

// extractToken reads the bearer token, falling back to the session cookie.
// The Authorization header takes precedence when both are present.
func (a *JWTAuthenticator) extractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(a.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
