// Package session turns an Auth0 access token into the identity the state
// provider is scoped to. Keys are fetched from the tenant's JWKS endpoint
// and cached between verifications.
package session

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"

	"watchlog/internal/state"
)

// CustomClaims carries the profile fields Auth0 puts in the token beyond
// the registered claims.
type CustomClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Validate satisfies validator.CustomClaims; the profile fields need no
// checks of their own.
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// Verifier validates RS256 tokens issued by one Auth0 tenant.
type Verifier struct {
	validator *validator.Validator
}

func NewVerifier(domain, audience string) (*Verifier, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, fmt.Errorf("failed to parse the issuer url: %w", err)
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT validator: %w", err)
	}

	return &Verifier{validator: jwtValidator}, nil
}

// Verify checks the token and returns the session identity it asserts.
func (v *Verifier) Verify(ctx context.Context, token string) (state.Session, error) {
	claims, err := v.validator.ValidateToken(ctx, token)
	if err != nil {
		return state.Session{}, fmt.Errorf("token validation failed: %w", err)
	}

	validated, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return state.Session{}, fmt.Errorf("unexpected claims type %T", claims)
	}

	session := state.Session{UserID: validated.RegisteredClaims.Subject}
	if custom, ok := validated.CustomClaims.(*CustomClaims); ok {
		session.Email = custom.Email
		session.Name = custom.Name
	}
	return session, nil
}
