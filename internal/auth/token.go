package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is how long a session token stays valid.
const DefaultSessionTTL = 30 * 24 * time.Hour

// Token audiences. A feed token only reads the calendar feed and never
// opens a session.
const (
	audienceSession = "kitchen-session"
	audienceFeed    = "kitchen-feed"
)

type sessionClaims struct {
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. A zero ttl uses DefaultSessionTTL.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a session token carrying the identity.
func (t *TokenIssuer) Issue(id Identity) (string, error) {
	return t.issue(id, audienceSession)
}

// IssueFeed signs a calendar feed token for the identity.
func (t *TokenIssuer) IssueFeed(id Identity) (string, error) {
	return t.issue(id, audienceFeed)
}

func (t *TokenIssuer) issue(id Identity, audience string) (string, error) {
	now := t.now()
	claims := sessionClaims{
		Name:    id.DisplayName,
		Picture: id.PhotoURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Email,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse verifies a session token and returns the identity it carries.
func (t *TokenIssuer) Parse(raw string) (Identity, error) {
	return t.parse(raw, audienceSession)
}

// ParseFeed verifies a calendar feed token.
func (t *TokenIssuer) ParseFeed(raw string) (Identity, error) {
	return t.parse(raw, audienceFeed)
}

func (t *TokenIssuer) parse(raw, audience string) (Identity, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid %s token: %w", audience, err)
	}
	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("invalid %s token: missing subject", audience)
	}
	return Identity{
		Email:       claims.Subject,
		DisplayName: claims.Name,
		PhotoURL:    claims.Picture,
	}, nil
}
