package token

import (
	"fmt"
	"time"
)

// ClassConfig is the secret and lifetime of a token class.
type ClassConfig struct {
	Secret string
	TTL    time.Duration
}

// Set groups one issuer per token class.
type Set struct {
	Access       *Issuer
	Refresh      *Issuer
	Verification *Issuer
}

func NewSet(access, refresh, verification ClassConfig) (*Set, error) {
	a, err := NewIssuer(access.Secret, access.TTL)
	if err != nil {
		return nil, fmt.Errorf("access issuer: %w", err)
	}
	r, err := NewIssuer(refresh.Secret, refresh.TTL)
	if err != nil {
		return nil, fmt.Errorf("refresh issuer: %w", err)
	}
	v, err := NewIssuer(verification.Secret, verification.TTL)
	if err != nil {
		return nil, fmt.Errorf("verification issuer: %w", err)
	}
	return &Set{Access: a, Refresh: r, Verification: v}, nil
}

// Pair is what login and refresh hand back to the caller.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// IssuePair mints a fresh access and refresh token for the account.
func (s *Set) IssuePair(id, email string) (Pair, error) {
	access, err := s.Access.Issue(id, email)
	if err != nil {
		return Pair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.Refresh.Issue(id, email)
	if err != nil {
		return Pair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}
