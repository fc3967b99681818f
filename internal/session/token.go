package session

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/yoockh/futureself/internal/models"
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// Claims carries the user id in "sub" and the onboarding status known when
// the token was issued.
type Claims struct {
	Status models.OnboardingStatus `json:"status,omitempty"`
	jwtlib.RegisteredClaims
}

// Issuer signs and verifies HS256 bearer tokens.
type Issuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration

	now func() time.Time
}

func NewIssuer(secret, issuer, audience string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultStatusTTL
	}
	return &Issuer{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (i *Issuer) Issue(userID string, status models.OnboardingStatus) (string, error) {
	if userID == "" {
		return "", ErrTokenInvalid
	}
	now := i.now()
	claims := Claims{
		Status: status,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   userID,
			Issuer:    i.issuer,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(i.ttl)),
		},
	}
	if i.audience != "" {
		claims.Audience = jwtlib.ClaimStrings{i.audience}
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(i.secret)
}

func (i *Issuer) Parse(raw string) (*Claims, error) {
	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(i.issuer))
	}
	if i.audience != "" {
		opts = append(opts, jwtlib.WithAudience(i.audience))
	}

	claims := &Claims{}
	tok, err := jwtlib.ParseWithClaims(raw, claims, func(t *jwtlib.Token) (any, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if tok == nil || !tok.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
