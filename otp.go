package auth

import (
	"crypto/rand"
	"math/big"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// OTPLength is the number of digits in a generated one-time code.
const OTPLength = 6

// OTPWindow is how long a one-time code stays valid after issuance.
const OTPWindow = 15 * time.Minute

// DigitOTPGenerator produces fixed-length numeric codes from crypto/rand.
type DigitOTPGenerator struct {
	Length int
}

var _ OTPGenerator = DigitOTPGenerator{}

// NewOTPGenerator returns a generator with the default code length.
func NewOTPGenerator() DigitOTPGenerator {
	return DigitOTPGenerator{Length: OTPLength}
}

// Generate returns a numeric code. Leading zeros are preserved, every code
// has exactly Length digits.
func (g DigitOTPGenerator) Generate() (string, error) {
	length := g.Length
	if length <= 0 {
		length = OTPLength
	}

	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate otp")
		}
		digits[i] = byte('0' + n.Int64())
	}

	return string(digits), nil
}

// OTPWithinWindow reports whether a code created at the given time is still
// usable. A nil creation time never validates.
func OTPWithinWindow(createdAt *time.Time, now time.Time) bool {
	if createdAt == nil {
		return false
	}
	return now.Sub(*createdAt) <= OTPWindow
}
