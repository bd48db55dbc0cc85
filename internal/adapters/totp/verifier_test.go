package totp

import (
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "JBSWY3DPEHPK3PXP"

func codeAt(t *testing.T, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(testSecret, at, totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

func TestVerifier_AcceptsCurrentCode(t *testing.T) {
	v := NewVerifier(1)
	now := time.Date(2025, 6, 1, 12, 0, 15, 0, time.UTC)

	assert.True(t, v.Verify(testSecret, codeAt(t, now), now))
}

func TestVerifier_ToleratesOneStepOfDrift(t *testing.T) {
	v := NewVerifier(1)
	now := time.Date(2025, 6, 1, 12, 0, 15, 0, time.UTC)

	assert.True(t, v.Verify(testSecret, codeAt(t, now.Add(-30*time.Second)), now))
	assert.True(t, v.Verify(testSecret, codeAt(t, now.Add(30*time.Second)), now))
}

func TestVerifier_RejectsStaleCode(t *testing.T) {
	v := NewVerifier(1)
	now := time.Date(2025, 6, 1, 12, 0, 15, 0, time.UTC)

	assert.False(t, v.Verify(testSecret, codeAt(t, now.Add(-90*time.Second)), now))
	assert.False(t, v.Verify(testSecret, codeAt(t, now.Add(90*time.Second)), now))
}

func TestVerifier_RejectsGarbage(t *testing.T) {
	v := NewVerifier(1)
	now := time.Now()

	assert.False(t, v.Verify(testSecret, "000000", now.Add(12*time.Hour)))
	assert.False(t, v.Verify(testSecret, "abcdef", now))
	assert.False(t, v.Verify("not-a-valid-secret!!", "123456", now))
}
