// Package client is the credvault gRPC client. It encodes requests with
// package api, carries the access token obtained at login on every call, and
// maps gRPC status codes back to the sentinel errors of package common so
// callers can use errors.Is.
package client
