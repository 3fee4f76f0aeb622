// Package session stores onboarding sessions in an expiring key-value
// backend, keyed by opaque high-entropy tokens.
//
// # Design
//
// A session is a JSON document with a backend-enforced TTL. Create and
// Refresh write value and expiry as one atomic unit through the kv adapter's
// optimistic transaction; read operations never alter the TTL. There is no
// delete operation: sessions cease to exist when their TTL elapses.
//
// # Architecture boundaries
//
// This package owns session persistence and nothing else. Token generation,
// OTP secrets, validation, and abandonment policy belong to the engine.
//
// # What this package must NOT do
//
//   - Generate or inspect OTP secrets.
//   - Decide TTL values; callers pass them explicitly.
//   - Import the root onboard package (no import cycles).
package session
