// Package cli provides the interactive cinemaclub command-line client.
//
// It wires configuration, credential storage, the authenticated request
// pipeline and the session controller, then runs a REPL:
//
//   - register / login / logout / whoami / update
//   - media, show, popular, new, soon, clubs
//   - status: session state, access token expiry, circuit breaker state
//
// When a token refresh fails in the background the user is told the session
// expired and the prompt drops back to anonymous.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
