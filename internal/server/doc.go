// Package server implements the infocollect HTTP API surface.
//
// Owns:
//   - routing for the single /infoCollect endpoint
//   - request parsing and the success/failure envelope
//   - request ids and panic recovery wrappers
//
// Does not own:
//   - the JSON value model and parser (internal/shared)
//   - anything stateful: no storage, no auth, no rate limits
//
// Invariants:
//   - every response on /infoCollect is a shared.CollectResponse via writeJSON
//   - a successful parse logs the payload exactly once; failures are not logged
//   - requests share no mutable state
package server
