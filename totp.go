package onboard

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// totpManager derives time-step passcodes from a per-session shared secret.
// The secret is the only persisted artifact; codes are re-derived at
// verification time, so a code cannot replay outside its step window.
type totpManager struct {
	config OTPConfig
}

func newTOTPManager(cfg OTPConfig) *totpManager {
	return &totpManager{config: cfg}
}

// IssueSecret generates a fresh base32-encoded shared secret.
func (m *totpManager) IssueSecret() (string, error) {
	raw := make([]byte, m.config.SecretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return b32.EncodeToString(raw), nil
}

// GenerateCode derives the passcode for the step window containing now.
func (m *totpManager) GenerateCode(secret string, now time.Time) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	counter := now.Unix() / int64(m.config.PeriodSec)
	return hotpCode(key, counter, m.config.Digits), nil
}

// VerifyCode checks a submitted code against the current step window only:
// no clock-skew tolerance. A mismatch is a false result, not an error; only
// a missing or undecodable secret errors.
func (m *totpManager) VerifyCode(secret, code string, now time.Time) (bool, error) {
	if secret == "" {
		return false, errors.New("empty otp secret")
	}

	trimmed := strings.TrimSpace(code)
	if len(trimmed) != m.config.Digits || !isNumericString(trimmed) {
		return false, nil
	}

	key, err := decodeSecret(secret)
	if err != nil {
		return false, err
	}

	counter := now.Unix() / int64(m.config.PeriodSec)
	if counter < 0 {
		return false, nil
	}
	expected := hotpCode(key, counter, m.config.Digits)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(trimmed)) == 1, nil
}

func decodeSecret(secret string) ([]byte, error) {
	key, err := b32.DecodeString(strings.ToUpper(strings.TrimSpace(secret)))
	if err != nil {
		return nil, fmt.Errorf("decode otp secret: %w", err)
	}
	if len(key) == 0 {
		return nil, errors.New("empty otp secret")
	}
	return key, nil
}

// hotpCode implements RFC 4226 dynamic truncation over an HMAC-SHA1 of the
// big-endian counter.
func hotpCode(secret []byte, counter int64, digits int) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, secret)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	mod := 1
	for i := 0; i < digits; i++ {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", digits, bin%mod)
}

func isNumericString(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
