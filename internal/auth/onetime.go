package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// OneTimeToken is an email-delivered token. Only Hash is persisted.
type OneTimeToken struct {
	Token  string
	Hash   string
	Expiry time.Time
}

// OneTimeTokens issues random tokens for email verification and password reset.
type OneTimeTokens struct {
	TTL time.Duration
	now func() time.Time
}

func NewOneTimeTokens(ttl time.Duration) *OneTimeTokens {
	return &OneTimeTokens{TTL: ttl, now: time.Now}
}

func (o *OneTimeTokens) Generate() (OneTimeToken, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return OneTimeToken{}, fmt.Errorf("generate token: %w", err)
	}

	token := hex.EncodeToString(buf)
	return OneTimeToken{
		Token:  token,
		Hash:   o.Derive(token),
		Expiry: o.now().Add(o.TTL),
	}, nil
}

// Derive returns the server-side hash of a client token.
func (o *OneTimeTokens) Derive(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
