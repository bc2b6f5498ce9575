package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TTL is the fixed lifetime of every issued token.
const TTL = 24 * time.Hour

var (
	// ErrInvalidToken is returned for malformed or tampered tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when the token is past its expiry.
	ErrTokenExpired = errors.New("token has expired")
	// ErrMissingSecret is returned when no signing secret is configured.
	ErrMissingSecret = errors.New("jwt secret is not configured")
)

// Config holds the signing configuration.
type Config struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// Payload is the identity copied into a token.
type Payload struct {
	UserID uuid.UUID
	Email  string
}

// Claims are the JWT claims carried by a bearer token.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Manager signs and verifies bearer tokens.
type Manager struct {
	config Config
	now    func() time.Time
}

// NewManager creates a Manager. A zero TTL falls back to one day.
func NewManager(config Config) *Manager {
	if config.TTL <= 0 {
		config.TTL = TTL
	}
	return &Manager{config: config, now: time.Now}
}

// Configured reports whether a signing secret is present.
func (m *Manager) Configured() bool {
	return m.config.Secret != ""
}

// Sign issues a token for the payload.
func (m *Manager) Sign(payload Payload) (string, error) {
	if !m.Configured() {
		return "", ErrMissingSecret
	}

	now := m.now()
	claims := Claims{
		UserID: payload.UserID.String(),
		Email:  payload.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   payload.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.Secret))
}

// Verify checks signature and expiry and returns the carried payload.
func (m *Manager) Verify(tokenString string) (*Payload, error) {
	if !m.Configured() {
		return nil, ErrMissingSecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(m.config.Secret), nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Payload{UserID: userID, Email: claims.Email}, nil
}
