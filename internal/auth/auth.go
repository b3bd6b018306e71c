// Package auth issues and verifies the HS256 bearer tokens that guard the
// aggregation endpoints.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/i474232898/country-data-aggregation/internal/aggregation"
)

const (
	DefaultExpiration = 60 * time.Minute

	// LocalsSubject is the fiber locals key holding the verified token subject.
	LocalsSubject = "auth.subject"

	// MessageSecretMissing is reported to clients when no signing secret is set.
	MessageSecretMissing = "JWT secret key is not configured."

	msgUnauthorized = "Unauthorized"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrSecretNotConfigured = errors.New("jwt secret key is not configured")
	ErrInvalidToken        = errors.New("invalid token")
)

// Settings configures token issuing and verification.
type Settings struct {
	Secret     string
	Issuer     string
	Audience   string
	Username   string
	Password   string
	Expiration time.Duration
}

// Token is the issued bearer token and its expiry.
type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Service struct {
	settings Settings
	clock    clock.Clock
}

// NewService creates a Service. A nil clock uses the wall clock.
func NewService(settings Settings, clk clock.Clock) *Service {
	if settings.Expiration <= 0 {
		settings.Expiration = DefaultExpiration
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Service{settings: settings, clock: clk}
}

// Issue checks the credentials and signs a token for userName.
func (s *Service) Issue(userName, password string) (Token, error) {
	if userName != s.settings.Username || password != s.settings.Password {
		return Token{}, ErrInvalidCredentials
	}
	if s.settings.Secret == "" {
		return Token{}, ErrSecretNotConfigured
	}

	now := s.clock.Now().UTC()
	expires := now.Add(s.settings.Expiration).Truncate(time.Second)

	claims := jwt.RegisteredClaims{
		Subject:   userName,
		Issuer:    s.settings.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	if s.settings.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.settings.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.settings.Secret))
	if err != nil {
		return Token{}, fmt.Errorf("signing token: %w", err)
	}
	return Token{Token: signed, ExpiresAt: expires}, nil
}

// Verify parses tokenString and checks its signature, expiry, issuer and
// audience.
func (s *Service) Verify(tokenString string) (*jwt.RegisteredClaims, error) {
	if s.settings.Secret == "" {
		return nil, ErrSecretNotConfigured
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	}
	if s.settings.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.settings.Issuer))
	}
	if s.settings.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.settings.Audience))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.settings.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Middleware rejects requests without a valid "Authorization: Bearer" token.
func Middleware(svc *Service, logger *zap.Logger) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return unauthorized(c)
		}

		claims, err := svc.Verify(strings.TrimSpace(token))
		if err != nil {
			logger.Debug("rejected bearer token", zap.String("path", c.Path()), zap.Error(err))
			return unauthorized(c)
		}

		c.Locals(LocalsSubject, claims.Subject)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).
		JSON(aggregation.Failure(msgUnauthorized, aggregation.StatusUnauthorized))
}
