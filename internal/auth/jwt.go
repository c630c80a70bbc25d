package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chronos-go/internal/config"
	userdomain "chronos-go/internal/domain/user"
	jwtvalidator "github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Claims are the private claims carried next to the registered ones.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

func (c *Claims) Validate(ctx context.Context) error {
	if c.UserID == "" {
		return errors.New("userId must be provided")
	}
	return nil
}

// Identity is the caller a valid token speaks for.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

type TokenIssuer struct {
	key      []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

func NewTokenIssuer(cfg config.AuthConfig) *TokenIssuer {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{
		key:      []byte(cfg.JWTSecret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Issue signs an HS256 access token for the user.
func (i *TokenIssuer) Issue(user *userdomain.User) (string, time.Time, error) {
	if len(i.key) == 0 {
		return "", time.Time{}, ErrSigningKeyMissing
	}

	now := i.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(i.ttl)
	token, err := jwt.NewBuilder().
		Issuer(i.issuer).
		Audience([]string{i.audience}).
		Subject(user.ID).
		IssuedAt(now).
		Expiration(expiresAt).
		Claim("userId", user.ID).
		Claim("email", user.Email).
		Claim("name", user.Name).
		Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, i.key))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return string(signed), expiresAt, nil
}

type TokenValidator struct {
	validator *jwtvalidator.Validator
}

func NewTokenValidator(cfg config.AuthConfig) (*TokenValidator, error) {
	if cfg.JWTSecret == "" {
		return nil, ErrSigningKeyMissing
	}
	key := []byte(cfg.JWTSecret)

	v, err := jwtvalidator.New(
		func(context.Context) (interface{}, error) { return key, nil },
		jwtvalidator.HS256,
		cfg.Issuer,
		[]string{cfg.Audience},
		jwtvalidator.WithCustomClaims(func() jwtvalidator.CustomClaims {
			return &Claims{}
		}),
		jwtvalidator.WithAllowedClockSkew(cfg.ClockSkew),
	)
	if err != nil {
		return nil, fmt.Errorf("create jwt validator: %w", err)
	}
	return &TokenValidator{validator: v}, nil
}

// Validate checks signature, issuer, audience and expiry and returns the caller.
func (v *TokenValidator) Validate(ctx context.Context, token string) (*Identity, error) {
	parsed, err := v.validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	validated, ok := parsed.(*jwtvalidator.ValidatedClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	claims, ok := validated.CustomClaims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if validated.RegisteredClaims.Subject != claims.UserID {
		return nil, fmt.Errorf("%w: subject does not match userId", ErrInvalidToken)
	}

	return &Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
		Name:   claims.Name,
	}, nil
}
