// Package jwt verifies the bearer tokens that identify callers.
package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/chirp/internal/clock"
	"github.com/smallbiznis/chirp/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.jwt", fx.Provide(NewVerifier))

var (
	ErrMissingSecret = errors.New("auth jwt secret is not configured")
	ErrInvalidToken  = errors.New("invalid_token")
)

const leeway = 30 * time.Second

// Claims are the token fields the service reads. Subject is the user id.
type Claims struct {
	Username string `json:"username,omitempty"`
	gojwt.RegisteredClaims
}

// Identity is the verified caller.
type Identity struct {
	UserID   string
	Username string
}

type Verifier struct {
	secret []byte
	issuer string
	clock  clock.Clock
}

func NewVerifier(cfg config.Config, clk clock.Clock) (*Verifier, error) {
	secret := strings.TrimSpace(cfg.AuthJWTSecret)
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &Verifier{
		secret: []byte(secret),
		issuer: strings.TrimSpace(cfg.AuthJWTIssuer),
		clock:  clk,
	}, nil
}

// Verify checks an HS256 token. exp and sub are required; iss is checked when
// an issuer is configured.
func (v *Verifier) Verify(raw string) (*Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}

	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithLeeway(leeway),
		gojwt.WithTimeFunc(v.clock.Now),
	}
	if v.issuer != "" {
		opts = append(opts, gojwt.WithIssuer(v.issuer))
	}

	var claims Claims
	token, err := gojwt.ParseWithClaims(raw, &claims, func(*gojwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &Identity{UserID: subject, Username: strings.TrimSpace(claims.Username)}, nil
}

// Sign issues a token for identity valid for ttl. Used by tooling and tests.
func (v *Verifier) Sign(identity Identity, ttl time.Duration) (string, error) {
	now := v.clock.Now()
	claims := Claims{
		Username: identity.Username,
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   identity.UserID,
			Issuer:    v.issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(v.secret)
}
