package token

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"time"
)

// No ambiguous characters like O/0, I/1
// 32 symbols, so a random byte maps to them without bias
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

// NormalizeCode makes user input comparable with stored codes
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// DefaultPrefix looks like VOTE-2024
func DefaultPrefix(now time.Time) string {
	return fmt.Sprintf("VOTE-%d", now.Year())
}

// generateCode returns code in format PREFIX-XXXXXX
func generateCode(prefix string) (string, error) {
	buf := make([]byte, codeLength)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}

	for i := range buf {
		buf[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
	}

	if prefix == "" {
		return string(buf), nil
	}

	return NormalizeCode(prefix) + "-" + string(buf), nil
}
