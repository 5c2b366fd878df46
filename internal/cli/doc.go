// Package cli provides the interactive fuelwatch command-line client.
//
// It wires configuration, the local session database, the fuel-price API
// client, and an interactive REPL. Typical flow: restore the previous
// session from disk, verify it against the server, and execute user
// commands.
//
// Key features:
//   - Login / Register / Logout against the fuel-price API
//   - Browse the station catalog with filters and pagination
//   - Cached listings served instantly, refreshed in the background
//   - Session expiry detected mid-session and announced once
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
