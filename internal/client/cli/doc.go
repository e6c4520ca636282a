// Package cli implements the interactive credvault command line client: a
// small REPL over the gRPC client in package client.
package cli
