package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// orderCodeAlphabet drops 0/O and 1/I/L so codes survive being read aloud.
const orderCodeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const (
	orderCodeLength = 8
	pinLength       = 6
)

var pinPattern = regexp.MustCompile(`^[0-9]{6}$`)

// NewOrderCode returns a random human-readable order code.
func NewOrderCode() (string, error) {
	return randomString(orderCodeAlphabet, orderCodeLength)
}

// NewTrackingPin returns a random 6-digit pin.
func NewTrackingPin() (string, error) {
	return randomString("0123456789", pinLength)
}

// ValidTrackingPin reports whether pin is exactly six digits.
func ValidTrackingPin(pin string) bool {
	return pinPattern.MatchString(pin)
}

// NormalizeOrderCode uppercases and trims a caller-supplied order code.
func NormalizeOrderCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func randomString(alphabet string, length int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate random index: %w", err)
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String(), nil
}
