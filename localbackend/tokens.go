package localbackend

import (
	"fmt"
	"time"

	session "github.com/BustosAndrew/go-session"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// tokenService mints and validates the HS256 tokens the identity service
// uses to persist sessions across runs.
type tokenService struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
}

func newTokenService(signingKey []byte, ttl time.Duration, issuer string) *tokenService {
	return &tokenService{
		signingKey: signingKey,
		ttl:        ttl,
		issuer:     issuer,
	}
}

func (ts *tokenService) Mint(ident session.Identity) (string, error) {
	now := time.Now()
	claims := &sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   ident.ID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
			ID:        uuid.NewString(),
		},
		Email: ident.Email(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign session token")
	}

	return signed, nil
}

func (ts *tokenService) Validate(raw string) (*sessionClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, jwt.WithIssuer(ts.issuer))

	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "invalid session token")
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return nil, goerrors.New("invalid session token", goerrors.CategoryAuth)
	}

	return claims, nil
}
