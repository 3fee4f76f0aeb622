package onboard

import (
	"errors"
	"time"
)

// Config defines the engine's tunables. Instances are configured during
// initialization and treated as immutable after Build.
type Config struct {
	Onboarding OnboardingConfig
	OTP        OTPConfig
	Sweep      SweepConfig
	JWT        JWTConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
ONBOARDING CONFIG
====================================
*/

// OnboardingConfig controls session creation and the token format.
type OnboardingConfig struct {
	// RedisPrefix namespaces session keys. Empty selects the session
	// package default.
	RedisPrefix string
	// InitialTTL is the session lifetime granted on submission.
	InitialTTL time.Duration
	// OTPWindow is the fallback TTL used when re-arming a session whose
	// backend expiry cannot be read (missing or absent TTL).
	OTPWindow time.Duration
	// TokenBytes is the entropy of the opaque session token.
	TokenBytes int
	// MobilePattern validates intake mobile numbers (anchored regexp).
	MobilePattern string
	// CountryCodePrefix is prepended to mobile and telephone numbers on
	// intake normalization.
	CountryCodePrefix string
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig controls passcode derivation. The defaults match a 6-digit code
// over 300-second steps with no clock-skew tolerance: only the current step
// verifies.
type OTPConfig struct {
	Digits      int
	PeriodSec   int
	SecretBytes int
	// SMSTemplate is the dispatch body; it must contain a single %s verb
	// for the code.
	SMSTemplate string
}

/*
====================================
SWEEP CONFIG
====================================
*/

// SweepConfig controls the abandoned-session sweep.
type SweepConfig struct {
	// AbandonThreshold flags sessions whose remaining TTL is at or below
	// this value.
	AbandonThreshold time.Duration
	// NotifySubject is the follow-up email subject line.
	NotifySubject string
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig controls the short-lived bearer token minted on OTP verification.
type JWTConfig struct {
	TTL           time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking the flow when the buffer
	// is saturated. Dropped counts are observable via Engine.AuditDropped.
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the deployment defaults: 10-minute initial sessions,
// a 1-hour OTP re-arm fallback, 32-byte tokens, Philippine mobile format,
// 6-digit codes over 300-second steps, and a 2-minute abandonment threshold.
func DefaultConfig() Config {
	return Config{
		Onboarding: OnboardingConfig{
			InitialTTL:        10 * time.Minute,
			OTPWindow:         time.Hour,
			TokenBytes:        32,
			MobilePattern:     `^639\d{9}$`,
			CountryCodePrefix: "+",
		},
		OTP: OTPConfig{
			Digits:      6,
			PeriodSec:   300,
			SecretBytes: 20,
			SMSTemplate: "Please enter your One-Time PIN (OTP) %s to proceed with your transaction.",
		},
		Sweep: SweepConfig{
			AbandonThreshold: 2 * time.Minute,
			NotifySubject:    "Finish opening your account",
		},
		JWT: JWTConfig{
			TTL:           15 * time.Minute,
			SigningMethod: "hs256",
			Issuer:        "onboard",
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Onboarding.InitialTTL <= 0 {
		return errors.New("onboarding InitialTTL must be positive")
	}
	if cfg.Onboarding.OTPWindow <= 0 {
		return errors.New("onboarding OTPWindow must be positive")
	}
	if cfg.Onboarding.TokenBytes < 16 {
		return errors.New("onboarding TokenBytes must be at least 16")
	}
	if cfg.Onboarding.MobilePattern == "" {
		return errors.New("onboarding MobilePattern must be set")
	}
	if cfg.OTP.Digits < 4 || cfg.OTP.Digits > 10 {
		return errors.New("otp Digits must be between 4 and 10")
	}
	if cfg.OTP.PeriodSec <= 0 {
		return errors.New("otp PeriodSec must be positive")
	}
	if cfg.OTP.SecretBytes < 16 {
		return errors.New("otp SecretBytes must be at least 16")
	}
	if cfg.Sweep.AbandonThreshold <= 0 {
		return errors.New("sweep AbandonThreshold must be positive")
	}
	if cfg.JWT.TTL <= 0 {
		return errors.New("jwt TTL must be positive")
	}
	return nil
}
