// Package client is the Go client of the authkit gRPC API.
//
// GRPCClient keeps the session tokens of one user, sends the access token
// with every call, transparently refreshes it when the server reports an
// invalid access token, and maps gRPC status codes to the sentinel errors
// declared in errors.go.
package client
