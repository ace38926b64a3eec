// Package cli provides the interactive authkit command-line client.
//
// It wires configuration, the gRPC client and a small REPL for account
// and user management. A background watcher pings the server and flips the
// prompt between online and offline.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
