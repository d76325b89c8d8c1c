package auth

import (
	"errors"
	"time"

	"storefront/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer          = "storefront"
	tokenTypeAccess = "access"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNoSecret     = errors.New("jwt secret is not configured")
)

// Service checks admin tokens issued by the storefront login flow. Tokens are
// HS256 signed with the shared secret.
type Service struct {
	secret    []byte
	adminRole string
	now       func() time.Time
}

// NewService creates a new auth service
func NewService(cfg config.AuthConfig) *Service {
	role := cfg.AdminRole
	if role == "" {
		role = "admin"
	}
	return &Service{
		secret:    []byte(cfg.JWTSecret),
		adminRole: role,
		now:       time.Now,
	}
}

// TokenClaims represents JWT token claims
type TokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	Type   string    `json:"type"` // access or refresh
	jwt.RegisteredClaims
}

// GenerateToken signs an access token for the given user and role.
func (s *Service) GenerateToken(userID uuid.UUID, email, role string, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrNoSecret
	}

	now := s.now()
	claims := TokenClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Type:   tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken validates and parses a JWT access token
func (s *Service) ValidateToken(tokenString string) (*TokenClaims, error) {
	if len(s.secret) == 0 {
		return nil, ErrNoSecret
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != tokenTypeAccess {
		return nil, errors.Join(ErrInvalidToken, errors.New("invalid token type"))
	}
	return claims, nil
}

// IsAdmin is the only authorization question the product layer asks.
func (s *Service) IsAdmin(claims *TokenClaims) bool {
	return claims != nil && claims.Role == s.adminRole
}
