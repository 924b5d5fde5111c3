package providers

import (
	"context"
	"errors"
)

// ErrInvalidToken is returned when a token does not identify a player.
var ErrInvalidToken = errors.New("invalid token")

// AuthProvider verifies the bearer tokens sent to the snapshot API.
type AuthProvider interface {
	VerifyToken(ctx context.Context, idToken string) (*TokenClaims, error)
}

// TokenClaims identifies the player a token belongs to. UID is used as the
// owner of the player's snapshots.
type TokenClaims struct {
	UID string `json:"uid"`
}

var _ AuthProvider = &StaticAuthProvider{}

// StaticAuthProvider accepts a fixed set of tokens. It is meant for local
// development and tests.
type StaticAuthProvider struct {
	uids map[string]string
}

// NewStaticAuthProvider creates a StaticAuthProvider from a map of token
// to player UID.
func NewStaticAuthProvider(tokens map[string]string) *StaticAuthProvider {
	uids := make(map[string]string, len(tokens))
	for token, uid := range tokens {
		uids[token] = uid
	}
	return &StaticAuthProvider{
		uids: uids,
	}
}

func (p *StaticAuthProvider) VerifyToken(ctx context.Context, idToken string) (*TokenClaims, error) {
	uid, ok := p.uids[idToken]
	if !ok {
		return nil, ErrInvalidToken
	}
	return &TokenClaims{
		UID: uid,
	}, nil
}
