package session

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/upb/permguard/rbac"
)

var (
	// ErrJWKSFetchFailed is returned when the key set cannot be retrieved
	ErrJWKSFetchFailed = errors.New("failed to fetch JWKS")

	// ErrUnknownKey is returned when no key in the set matches the token's kid
	ErrUnknownKey = errors.New("signing key not found in JWKS")
)

// JWKS is a JSON Web Key Set
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK is a single RSA JSON Web Key
type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKSConfig configures a JWKSAuthenticator.
// RoleClaim and StatusClaim name the token claims holding the user's role
// and account status; providers often namespace them (e.g. "custom:userRole").
type JWKSConfig struct {
	URL         string
	Issuer      string
	Audience    string
	RoleClaim   string
	StatusClaim string
	CacheTTL    time.Duration
	HTTPTimeout time.Duration
	HTTPClient  *http.Client
}

// JWKSAuthenticator validates RS256 tokens minted by an external identity
// provider that publishes its signing keys as a JWKS document.
type JWKSAuthenticator struct {
	url         string
	issuer      string
	audience    string
	roleClaim   string
	statusClaim string
	httpClient  *http.Client

	setTTL time.Duration
	setExp time.Time
	set    *JWKS
	setMu  sync.RWMutex

	keys   map[string]*rsa.PublicKey
	keysMu sync.RWMutex
}

// NewJWKSAuthenticator creates an authenticator for the key set at config.URL
func NewJWKSAuthenticator(config JWKSConfig) *JWKSAuthenticator {
	if config.CacheTTL == 0 {
		config.CacheTTL = time.Hour
	}
	if config.HTTPTimeout == 0 {
		config.HTTPTimeout = 10 * time.Second
	}
	if config.RoleClaim == "" {
		config.RoleClaim = "role"
	}
	if config.StatusClaim == "" {
		config.StatusClaim = "status"
	}
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: config.HTTPTimeout}
	}

	return &JWKSAuthenticator{
		url:         config.URL,
		issuer:      config.Issuer,
		audience:    config.Audience,
		roleClaim:   config.RoleClaim,
		statusClaim: config.StatusClaim,
		httpClient:  client,
		setTTL:      config.CacheTTL,
		keys:        make(map[string]*rsa.PublicKey),
	}
}

// Validate verifies tokenString against the provider's keys and maps its
// claims onto a Session.
func (a *JWKSAuthenticator) Validate(ctx context.Context, tokenString string) (*Session, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, errors.New("kid header not found")
		}
		return a.publicKey(ctx, kid)
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return nil, ErrMissingSubject
	}

	s := &Session{
		User: &User{
			ID:     sub,
			Role:   rbac.Role(stringClaim(claims, a.roleClaim)),
			Status: stringClaim(claims, a.statusClaim),
			Email:  stringClaim(claims, "email"),
			Name:   stringClaim(claims, "name"),
		},
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.Expires = exp.Time
	}
	return s, nil
}

// Accessor returns a session accessor reading the bearer token from the
// request in ctx. Provider tokens are never read from cookies.
func (a *JWKSAuthenticator) Accessor() Accessor {
	return func(ctx context.Context) (*Session, error) {
		r := RequestFromContext(ctx)
		if r == nil {
			return nil, nil
		}
		token := extractBearerToken(r)
		if token == "" {
			return nil, nil
		}
		return a.Validate(ctx, token)
	}
}

// FetchJWKS returns the key set, refreshing it once the cache expires
func (a *JWKSAuthenticator) FetchJWKS(ctx context.Context) (*JWKS, error) {
	a.setMu.RLock()
	if a.set != nil && time.Now().Before(a.setExp) {
		defer a.setMu.RUnlock()
		return a.set, nil
	}
	a.setMu.RUnlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status code %d", ErrJWKSFetchFailed, resp.StatusCode)
	}

	var set JWKS
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}

	a.setMu.Lock()
	a.set = &set
	a.setExp = time.Now().Add(a.setTTL)
	a.setMu.Unlock()

	return &set, nil
}

// InvalidateCache drops the cached key set and parsed keys
func (a *JWKSAuthenticator) InvalidateCache() {
	a.setMu.Lock()
	a.set = nil
	a.setExp = time.Time{}
	a.setMu.Unlock()

	a.keysMu.Lock()
	a.keys = make(map[string]*rsa.PublicKey)
	a.keysMu.Unlock()
}

func (a *JWKSAuthenticator) publicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	a.keysMu.RLock()
	key, ok := a.keys[kid]
	a.keysMu.RUnlock()
	if ok {
		return key, nil
	}

	set, err := a.FetchJWKS(ctx)
	if err != nil {
		return nil, err
	}

	for i := range set.Keys {
		if set.Keys[i].Kid != kid {
			continue
		}
		key, err := set.Keys[i].RSAPublicKey()
		if err != nil {
			return nil, err
		}
		a.keysMu.Lock()
		a.keys[kid] = key
		a.keysMu.Unlock()
		return key, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKey, kid)
}

// RSAPublicKey decodes the key's modulus and exponent
func (k JWK) RSAPublicKey() (*rsa.PublicKey, error) {
	if k.Kty != "RSA" {
		return nil, fmt.Errorf("unsupported key type %q", k.Kty)
	}
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}

	var e int
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}, nil
}

func stringClaim(claims jwt.MapClaims, name string) string {
	v, _ := claims[name].(string)
	return v
}
