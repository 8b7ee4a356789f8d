// Package permalink generates random numeric identifiers for records that
// need short, non-sequential public handles, such as order numbers.
package permalink

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// DefaultLength is the number of random digits appended to the prefix.
	DefaultLength = 9

	digits = "0123456789"
)

// Generator produces candidate permalinks of the form <prefix><digits>.
type Generator struct {
	Prefix string
	Length int
}

// New returns a generator with the given prefix and the default digit length.
func New(prefix string) Generator {
	return Generator{Prefix: prefix, Length: DefaultLength}
}

// Generate returns a fresh candidate. Each call draws new random digits, so
// callers retrying after a collision get a different value every time.
func (g Generator) Generate() (string, error) {
	length := g.Length
	if length <= 0 {
		length = DefaultLength
	}

	var sb strings.Builder
	sb.Grow(len(g.Prefix) + length)
	sb.WriteString(g.Prefix)

	max := big.NewInt(int64(len(digits)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate permalink: %w", err)
		}
		sb.WriteByte(digits[n.Int64()])
	}

	return sb.String(), nil
}
