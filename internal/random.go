package internal

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/hashicorp/go-secure-stdlib/base62"
)

// CodeFormat selects the alphabet of a one-time code.
type CodeFormat string

const (
	CodeNumeric      CodeFormat = "numeric"
	CodeAlphanumeric CodeFormat = "alphanumeric"

	MinCodeLength = 6
	MaxCodeLength = 64
)

var ErrInvalidCodeLength = errors.New("invalid code length")

// NewCode returns a code of the requested format drawn from crypto/rand.
// An error means the entropy source failed or the parameters are out of range.
func NewCode(format CodeFormat, length int) (string, error) {
	if length < MinCodeLength || length > MaxCodeLength {
		return "", ErrInvalidCodeLength
	}

	switch format {
	case CodeNumeric:
		return NewOTP(length)
	case CodeAlphanumeric, "":
		code, err := base62.Random(length)
		if err != nil {
			return "", fmt.Errorf("code entropy: %w", err)
		}
		return code, nil
	default:
		return "", fmt.Errorf("unsupported code format %q", format)
	}
}

// NewOTP returns a decimal code of exactly digits characters.
func NewOTP(digits int) (string, error) {
	if digits < MinCodeLength || digits > MaxCodeLength {
		return "", ErrInvalidCodeLength
	}

	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("code entropy: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	otp := b.String()
	if len(otp) != digits {
		return "", fmt.Errorf("invalid otp generation length")
	}
	return otp, nil
}
