// Package common contains shared constants and sentinel errors used across
// authkit components.
package common

// AccessTokenHeaderName is the gRPC metadata key that may carry a raw access
// token as an alternative to the authorization header.
const AccessTokenHeaderName = "access_token"

// AuthorizationHeaderName carries "Bearer <access token>".
const AuthorizationHeaderName = "authorization"

// BearerPrefix precedes the token in the authorization header.
const BearerPrefix = "Bearer "

// RequestIDHeaderName carries the request id in both directions.
const RequestIDHeaderName = "x-request-id"
