// Package common contains shared constants, sentinel errors and small helpers
// used across credvault components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound and outbound requests.
const AccessTokenHeaderName = "access_token"

// OTPDigits is the length of recovery codes.
const OTPDigits = 6
