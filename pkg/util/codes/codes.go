package codes

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	ErrInvalidLength = errors.New("invalid code length")
	ErrEmptyCharset  = errors.New("charset cannot be empty")
)

// Mixed case alphanumeric excluding ambiguous characters
const charsetMixedAlphanumeric = "ABCDEFGHJKMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"

// Generator produces random codes according to Config.
type Generator struct {
	cfg Config
}

func New(cfg Config) *Generator {
	if cfg.TokenByteLength < 1 {
		cfg.TokenByteLength = DefaultConfig().TokenByteLength
	}
	return &Generator{cfg: cfg}
}

// Token returns a random token of the configured byte length, URL-safe base64
// or hex encoded.
func (g *Generator) Token() (string, error) {
	if g.cfg.URLSafeTokens {
		return GenerateURLSafeToken(g.cfg.TokenByteLength)
	}
	return GenerateSecureToken(g.cfg.TokenByteLength)
}

// Code returns a code of length drawn from the configured charset.
func (g *Generator) Code(length int) (string, error) {
	return GenerateCode(length, g.cfg.GetCharset())
}

// GenerateSecureToken creates a cryptographically secure hex token.
// byteLength specifies the number of random bytes (output will be 2x this length in hex).
func GenerateSecureToken(byteLength int) (string, error) {
	if byteLength < 1 {
		return "", ErrInvalidLength
	}

	b := make([]byte, byteLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return hex.EncodeToString(b), nil
}

// GenerateURLSafeToken creates a URL-safe base64-encoded token.
func GenerateURLSafeToken(byteLength int) (string, error) {
	if byteLength < 1 {
		return "", ErrInvalidLength
	}

	b := make([]byte, byteLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateCode creates a code of specified length from a given character set.
func GenerateCode(length int, charset string) (string, error) {
	if length < 1 {
		return "", ErrInvalidLength
	}
	if len(charset) == 0 {
		return "", ErrEmptyCharset
	}

	result := make([]byte, length)
	max := big.NewInt(int64(len(charset)))
	for i := range result {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random character: %w", err)
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}

// GenerateNumericCode creates a numeric-only code of specified length.
func GenerateNumericCode(length int) (string, error) {
	if length < 1 {
		return "", ErrInvalidLength
	}

	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}

	return fmt.Sprintf("%0*d", length, n), nil
}

// FormatCode formats a code with dashes for readability.
// e.g., "ABCD1234" -> "ABCD-1234" with groupSize=4
func FormatCode(code string, groupSize int) string {
	if groupSize < 1 || len(code) <= groupSize {
		return code
	}

	var parts []string
	for i := 0; i < len(code); i += groupSize {
		end := min(i+groupSize, len(code))
		parts = append(parts, code[i:end])
	}

	return strings.Join(parts, "-")
}
