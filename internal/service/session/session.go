package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/evote/internal/apperrors"
)

const (
	CookieName = "validated_token"

	defaultSigningMethod = "HS256"
	defaultTTL           = 24 * time.Hour
	issuer               = "evote"
)

// Claims of the validated-session marker
// Carries nothing except the token id
type Claims struct {
	jwt.RegisteredClaims
	TokenID uuid.UUID `json:"tid"`
}

// Session manager with sensible default
type Config struct {
	// Secret key to sign the marker
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Marker lifetime, 24 hours if not set
	TTL time.Duration

	// Send cookie over https only
	Secure bool
}

// Keeps proof that the token passed validation in this browser
// The marker lives in the signed cookie, nothing is stored on server side
type Manager struct {
	key    []byte
	alg    jwt.SigningMethod
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func New(cfg Config) (*Manager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg := jwt.GetSigningMethod(cfg.Alg)
	if alg == nil {
		return nil, fmt.Errorf("unknown signing method %q", cfg.Alg)
	}

	if cfg.TTL == 0 {
		cfg.TTL = defaultTTL
	}

	return &Manager{
		key:    []byte(cfg.SecretKey),
		alg:    alg,
		ttl:    cfg.TTL,
		secure: cfg.Secure,
		now:    time.Now,
	}, nil
}

// Sign marker for the token
func (m *Manager) Issue(tokenID uuid.UUID) (string, time.Time, error) {
	now := m.now().Truncate(time.Second)
	expiresAt := now.Add(m.ttl)

	marker := jwt.NewWithClaims(m.alg, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		TokenID: tokenID,
	})

	value, err := marker.SignedString(m.key)
	if err != nil {
		return "", expiresAt, fmt.Errorf("error while signing session marker. Err: %w", err)
	}

	return value, expiresAt, nil
}

// Parse and verify marker
func (m *Manager) Parse(value string) (uuid.UUID, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(
		value,
		claims,
		func(t *jwt.Token) (any, error) {
			return m.key, nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("error while parsing session marker. Err: %w", err)
	}

	if claims.TokenID == uuid.Nil {
		return uuid.Nil, errors.New("session marker has no token id")
	}

	return claims.TokenID, nil
}

// Set marker cookie to the response
func (m *Manager) Set(w http.ResponseWriter, tokenID uuid.UUID) error {
	value, expiresAt, err := m.Issue(tokenID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})

	return nil
}

// Get validated token id from request
// Missing, tampered or expired marker are all the same for the caller: apperrors.ErrNotValidated
func (m *Manager) FromRequest(r *http.Request) (uuid.UUID, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return uuid.Nil, apperrors.ErrNotValidated
	}

	tokenID, err := m.Parse(cookie.Value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", apperrors.ErrNotValidated, err)
	}

	return tokenID, nil
}

// Remove marker cookie
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}
