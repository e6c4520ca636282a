package client

import (
	"context"

	"github.com/dmitrijs2005/credvault/internal/api"
	"github.com/dmitrijs2005/credvault/internal/vault"
)

// Client is the vault API as seen by the CLI.
type Client interface {
	Close() error
	Ping(ctx context.Context) error
	Register(ctx context.Context, req api.RegisterRequest) (string, error)
	Login(ctx context.Context, username, password string) error
	Logout()
	AddRecord(ctx context.Context, r vault.Record) (vault.Record, error)
	SearchRecords(ctx context.Context, c vault.Category, f vault.Field, query string) ([]Result, error)
	ListRecords(ctx context.Context, c vault.Category) ([]Result, error)
	UpdateRecord(ctx context.Context, c vault.Category, id string, p vault.Patch) (Result, error)
	RemoveRecord(ctx context.Context, c vault.Category, id string) error
	IssueRecovery(ctx context.Context, email string) (int64, error)
	VerifyRecovery(ctx context.Context, email, code string) (string, error)
}

// Result is one record returned by the server. Error is set when the server
// could not decrypt the record's secret.
type Result struct {
	Record vault.Record
	Error  string
}
