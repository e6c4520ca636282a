// Package services contains server-side business logic: owner accounts,
// the credential CRUD engine over owner vaults, and the recovery flow.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/dbx"
)

// Codec is the reversible secret transform. *cryptox.Codec implements it.
type Codec interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// internal wraps an infrastructure failure. Errors the caller can act on
// pass through unchanged.
func internal(op string, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrorAlreadyExists),
		errors.Is(err, common.ErrVersionConflict),
		errors.Is(err, common.ErrDecryption),
		errors.Is(err, common.ErrorValidation):
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", common.ErrorInternal, op, err)
}

// inTx runs fn in a transaction, or directly against a nil handle when
// there is no database (memory storage).
func inTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if db == nil {
		return fn(ctx, nil)
	}
	return dbx.WithTx(ctx, db, nil, fn)
}
