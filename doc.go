// Package onboard implements the customer-onboarding core for a digital bank
// signup flow: an expiring onboarding-session lifecycle with SMS one-time
// passcodes, short-lived bearer credentials on verification, and a sweep that
// promotes near-expiry sessions into durable abandoned leads.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build]. Session state lives entirely in Redis, so no in-process
// locks are held; per-token write races resolve through the backend's
// optimistic transaction (the losing writer observes a store error and may
// retry).
//
// # Architecture boundaries
//
// onboard is the public surface. It exposes [Engine], [Builder], [Config],
// value types, and the collaborator interfaces ([LeadStore], [SMSSender],
// [Mailer]). Persistence primitives live in the kv and session packages;
// credential minting in jwt; durable lead/client storage in leads; delivery
// clients in notify; the HTTP layer in api.
//
// # What this package must NOT do
//
//   - Expose Redis clients or key layouts in its public API.
//   - Retry collaborator I/O. Delivery failure never rolls back persisted
//     session state.
//   - Keep process-wide singletons; every dependency is injected at Build.
package onboard
