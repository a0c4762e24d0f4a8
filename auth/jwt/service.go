// Package jwt provides the bearer-token authentication scheme shared by the
// services: a generic token service parameterized by the claims type.
//
// The claims type T must implement jwt.Claims, typically by embedding
// jwt.RegisteredClaims. Claims covers the common user/role case.
//
//	svc, err := jwt.NewService(cfg, func() *jwt.Claims { return &jwt.Claims{} })
//	token, err := svc.GenerateAccess(&jwt.Claims{
//	    RegisteredClaims: gojwt.RegisteredClaims{Subject: "42"},
//	    Role:             "Admin",
//	})
//	claims, err := svc.Parse(token)
//
// ValidatorFunc plugs a service into middleware.Auth.
package jwt

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	apperrors "github.com/kbukum/ecommerce-shared/errors"
)

// Claims is the default claims set issued to e-commerce users.
type Claims struct {
	gojwt.RegisteredClaims
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// SetDefaults fills issuer, audience and time claims that are unset.
func (c *Claims) SetDefaults(now time.Time, ttl time.Duration, issuer, audience string) {
	if c.Issuer == "" {
		c.Issuer = issuer
	}
	if len(c.Audience) == 0 && audience != "" {
		c.Audience = gojwt.ClaimStrings{audience}
	}
	if c.IssuedAt == nil {
		c.IssuedAt = gojwt.NewNumericDate(now)
	}
	if c.ExpiresAt == nil {
		c.ExpiresAt = gojwt.NewNumericDate(now.Add(ttl))
	}
}

// Service generates and parses tokens for claims type T.
type Service[T gojwt.Claims] struct {
	cfg      Config
	newEmpty func() T
	now      func() time.Time
}

// NewService creates a token service. newEmpty returns a fresh T to parse into.
func NewService[T gojwt.Claims](cfg Config, newEmpty func() T) (*Service[T], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}
	return &Service[T]{cfg: cfg, newEmpty: newEmpty, now: time.Now}, nil
}

// Generate signs claims as they are.
func (s *Service[T]) Generate(claims T) (string, error) {
	token := gojwt.NewWithClaims(s.cfg.signingMethod(), claims)
	signed, err := token.SignedString(s.cfg.signKey())
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

// GenerateAccess fills unset issuer, audience, iat and exp (now +
// AccessTokenTTL) when T supports it, then signs claims.
func (s *Service[T]) GenerateAccess(claims T) (string, error) {
	if setter, ok := any(claims).(interface {
		SetDefaults(time.Time, time.Duration, string, string)
	}); ok {
		setter.SetDefaults(s.now(), s.cfg.AccessTokenTTL, s.cfg.Issuer, s.cfg.Audience)
	}
	return s.Generate(claims)
}

// Parse verifies signature, lifetime, issuer and audience and returns the
// claims. Failures are *errors.AppError with code TOKEN_EXPIRED or
// INVALID_TOKEN.
func (s *Service[T]) Parse(tokenString string) (T, error) {
	var zero T
	token, err := gojwt.ParseWithClaims(tokenString, s.newEmpty(), s.keyFunc, s.parserOptions()...)
	if err != nil {
		if errors.Is(err, gojwt.ErrTokenExpired) {
			return zero, apperrors.New(apperrors.ErrCodeTokenExpired, "Authentication token has expired.", 0).WithCause(err)
		}
		return zero, apperrors.InvalidToken().WithCause(err)
	}
	parsed, ok := token.Claims.(T)
	if !ok || !token.Valid {
		return zero, apperrors.InvalidToken()
	}
	return parsed, nil
}

// ValidatorFunc adapts Parse to middleware.AuthConfig.TokenValidator,
// exposing the claims as a map keyed by their JSON names.
func (s *Service[T]) ValidatorFunc() func(string) (map[string]interface{}, error) {
	return func(token string) (map[string]interface{}, error) {
		claims, err := s.Parse(token)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(claims)
		if err != nil {
			return nil, fmt.Errorf("jwt: encode claims: %w", err)
		}
		m := map[string]interface{}{}
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("jwt: decode claims: %w", err)
		}
		return m, nil
	}
}

func (s *Service[T]) keyFunc(token *gojwt.Token) (interface{}, error) {
	if token.Method.Alg() != s.cfg.signingMethod().Alg() {
		return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
	}
	return s.cfg.verifyKey(), nil
}

func (s *Service[T]) parserOptions() []gojwt.ParserOption {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{s.cfg.signingMethod().Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(s.now),
	}
	if s.cfg.ClockSkew > 0 {
		opts = append(opts, gojwt.WithLeeway(s.cfg.ClockSkew))
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.cfg.Issuer))
	}
	if s.cfg.Audience != "" {
		opts = append(opts, gojwt.WithAudience(s.cfg.Audience))
	}
	return opts
}
