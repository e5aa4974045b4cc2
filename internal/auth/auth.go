// Package auth gates the kitchen behind a fixed allow-list of household
// members. The identity provider itself is external; this package decides
// what to do with the identity it hands back.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

var (
	// ErrAuthDenied covers provider rejection and allow-list mismatch.
	ErrAuthDenied = errors.New("access denied: you are not on the guest list")
	// ErrAuthCancelled is returned when the user abandons sign-in.
	ErrAuthCancelled = errors.New("sign-in cancelled")
)

// Identity is who the provider says the user is.
type Identity struct {
	Email       string
	DisplayName string
	PhotoURL    string
}

// FirstName is used for the greeting.
func (i Identity) FirstName() string {
	first, _, _ := strings.Cut(strings.TrimSpace(i.DisplayName), " ")
	if first == "" {
		return i.Email
	}
	return first
}

// Provider establishes an identity.
type Provider interface {
	SignIn(ctx context.Context) (Identity, error)
}

// SignOuter is implemented by providers that keep their own signed-in state.
type SignOuter interface {
	SignOut(ctx context.Context) error
}

// AllowList is the fixed set of addresses permitted to use the app.
type AllowList struct {
	emails map[string]struct{}
}

// NewAllowList builds an allow-list; comparison ignores case.
func NewAllowList(emails ...string) *AllowList {
	a := &AllowList{emails: make(map[string]struct{}, len(emails))}
	for _, e := range emails {
		a.emails[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}
	return a
}

// Allows reports whether email is on the list.
func (a *AllowList) Allows(email string) bool {
	_, ok := a.emails[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// Gate combines the allow-list with session tokens.
type Gate struct {
	allow  *AllowList
	tokens *TokenIssuer
}

// NewGate creates a Gate.
func NewGate(allow *AllowList, tokens *TokenIssuer) *Gate {
	return &Gate{allow: allow, tokens: tokens}
}

// SignIn asks the provider for an identity and admits only allow-listed
// members. A non-member is signed straight back out of the provider so no
// half-authenticated state lingers. On success a session token is returned.
func (g *Gate) SignIn(ctx context.Context, p Provider) (Identity, string, error) {
	id, err := p.SignIn(ctx)
	if err != nil {
		if errors.Is(err, ErrAuthCancelled) {
			return Identity{}, "", err
		}
		log.Printf("Login failed: %v", err)
		return Identity{}, "", fmt.Errorf("%w: %v", ErrAuthDenied, err)
	}

	if !g.allow.Allows(id.Email) {
		log.Printf("⚠️ Unauthorized sign-in attempt from %s", id.Email)
		if so, ok := p.(SignOuter); ok {
			if err := so.SignOut(ctx); err != nil {
				log.Printf("Warning: failed to sign out %s: %v", id.Email, err)
			}
		}
		return Identity{}, "", ErrAuthDenied
	}

	token, err := g.tokens.Issue(id)
	if err != nil {
		return Identity{}, "", fmt.Errorf("failed to issue session token: %w", err)
	}
	return id, token, nil
}

// Resume re-establishes an identity from a session token. Members removed
// from the allow-list since the token was issued are denied, as are feed
// tokens.
func (g *Gate) Resume(token string) (Identity, error) {
	id, err := g.tokens.Parse(token)
	return g.admit(id, err)
}

// FeedToken issues a read-only calendar feed token for a signed-in member.
func (g *Gate) FeedToken(id Identity) (string, error) {
	if !g.allow.Allows(id.Email) {
		return "", ErrAuthDenied
	}
	token, err := g.tokens.IssueFeed(id)
	if err != nil {
		return "", fmt.Errorf("failed to issue feed token: %w", err)
	}
	return token, nil
}

// ResumeFeed checks a calendar feed token. Session tokens are refused.
func (g *Gate) ResumeFeed(token string) (Identity, error) {
	id, err := g.tokens.ParseFeed(token)
	return g.admit(id, err)
}

func (g *Gate) admit(id Identity, err error) (Identity, error) {
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrAuthDenied, err)
	}
	if !g.allow.Allows(id.Email) {
		return Identity{}, ErrAuthDenied
	}
	return id, nil
}
