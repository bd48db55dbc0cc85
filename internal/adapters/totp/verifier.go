// Package totp validates time-based one-time passcodes against an
// employee's enrolled secret.
package totp

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Verifier implements ports.CodeVerifier using RFC 6238 TOTP with 30-second
// steps and six digits. One step of clock drift is tolerated in either
// direction.
type Verifier struct {
	skew uint
}

// NewVerifier creates a Verifier. skew is the number of adjacent time steps
// accepted on each side of the current one; pass 1 for the standard ±30s
// tolerance.
func NewVerifier(skew uint) *Verifier {
	return &Verifier{skew: skew}
}

// Verify reports whether code is valid for secret at the given time.
func (v *Verifier) Verify(secret, code string, at time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
		Period:    30,
		Skew:      v.skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
