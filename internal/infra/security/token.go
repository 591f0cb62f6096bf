package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// defaultTokenBytes gives 256 bits of entropy per session token.
const defaultTokenBytes = 32

// RandomTokenGenerator mints opaque bearer tokens for sessions. Tokens are
// URL-safe base64 so they survive headers and query strings unescaped.
type RandomTokenGenerator struct {
	Size int
}

func (g RandomTokenGenerator) NewToken() (string, error) {
	size := g.Size
	if size <= 0 {
		size = defaultTokenBytes
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("security: token entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
