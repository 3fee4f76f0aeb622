package onboard

import "errors"

var (
	// ErrInvalidMobileNumber rejects an intake payload whose mobile number
	// does not match the configured national format. Client input error,
	// never retried.
	ErrInvalidMobileNumber = errors.New("invalid mobileNumber format")
	// ErrInvalidEmailAddress rejects an intake payload with a syntactically
	// invalid email address. Client input error, never retried.
	ErrInvalidEmailAddress = errors.New("invalid emailAddress format")
	// ErrTokenNotFound is returned when an onboarding token is absent or its
	// session has expired. Distinct from a wrong OTP, which is a normal
	// negative VerifyResult, not an error.
	ErrTokenNotFound = errors.New("onboarding token not found")
	// ErrStoreUnavailable wraps backend transaction or connectivity failures.
	// Safe for the caller to retry; session writes are idempotent at the
	// store level apart from last-writer-wins.
	ErrStoreUnavailable = errors.New("onboarding store unavailable")
	// ErrLeadStoreUnavailable wraps failures of the durable lead store.
	ErrLeadStoreUnavailable = errors.New("lead store unavailable")
	// ErrEngineNotReady is returned when an Engine method is called before
	// Builder.Build completed or on a nil receiver.
	ErrEngineNotReady = errors.New("engine not initialized")
)
