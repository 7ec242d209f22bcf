// Package auth guards the admin dashboard endpoints with a single
// bcrypt-hashed password and short-lived JWTs.
package auth

import (
	"time"

	"github.com/fitcoachhq/lead-funnel-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminService issues and validates admin access tokens.
type AdminService struct {
	jwtSecret    []byte
	passwordHash string
	tokenTTL     time.Duration
	logger       *zap.Logger
}

// NewAdminService creates the admin auth service. passwordHash is the
// bcrypt hash of the dashboard password, configured out of band.
func NewAdminService(jwtSecret, passwordHash string, tokenTTL time.Duration, logger *zap.Logger) *AdminService {
	return &AdminService{
		jwtSecret:    []byte(jwtSecret),
		passwordHash: passwordHash,
		tokenTTL:     tokenTTL,
		logger:       logger,
	}
}

// Session is a freshly issued admin token.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login checks the password against the configured hash and issues a JWT.
func (s *AdminService) Login(password string) (*Session, error) {
	if s.passwordHash == "" {
		return nil, &domain.ErrUnauthorized{Message: "admin access is not configured"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		s.logger.Warn("admin login rejected")
		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}

	now := time.Now()
	expiresAt := now.Add(s.tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	s.logger.Info("admin login issued", zap.Time("expires_at", expiresAt))
	return &Session{Token: signed, ExpiresAt: expiresAt}, nil
}

// ValidateToken parses and verifies an admin JWT.
func (s *AdminService) ValidateToken(tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, &domain.ErrUnauthorized{Message: "unexpected signing method"}
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}
	return nil
}
