package common

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// MakeNumericCode returns a string of the given number of decimal digits,
// each drawn independently from crypto/rand.
func MakeNumericCode(digits int) (string, error) {
	if digits <= 0 {
		return "", errors.New("invalid code length")
	}

	var sb strings.Builder
	sb.Grow(digits)

	ten := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}
	return sb.String(), nil
}

// WipeByteArray zeroes b in place. Nil slices are ignored.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
