package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// DefaultLength is the number of digits in a generated code.
const DefaultLength = 4

// Generate returns a random numeric code of the given length, drawn from
// crypto/rand. Each digit is picked independently so codes keep leading
// zeros and carry no ordering between successive calls.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate otp digit: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
