package vaults

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/dbx"
	"github.com/dmitrijs2005/credvault/internal/vault"
)

// PostgresRepository keeps one JSONB document per owner in the vaults table.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Load(ctx context.Context, ownerID string) (*vault.Vault, error) {
	query :=
		`SELECT version, document FROM vaults
		 WHERE owner_id = $1`

	var (
		version int64
		doc     []byte
	)
	err := r.db.QueryRowContext(ctx, query, ownerID).Scan(&version, &doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	v, err := decode(doc)
	if err != nil {
		return nil, err
	}
	// the row is authoritative for ownership and version
	v.OwnerID = ownerID
	v.Version = version
	return v, nil
}

func (r *PostgresRepository) Save(ctx context.Context, v *vault.Vault) error {
	next := v.Version + 1
	doc, err := encodeAt(v, next)
	if err != nil {
		return err
	}

	var res sql.Result
	if v.Version == 0 {
		res, err = r.db.ExecContext(ctx,
			`INSERT INTO vaults (owner_id, version, document)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (owner_id) DO NOTHING`,
			v.OwnerID, next, doc)
	} else {
		res, err = r.db.ExecContext(ctx,
			`UPDATE vaults SET version = $2, document = $3, updated_at = now()
			 WHERE owner_id = $1 AND version = $4`,
			v.OwnerID, next, doc, v.Version)
	}
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: vault of %s is not at version %d", common.ErrVersionConflict, v.OwnerID, v.Version)
	}

	v.Version = next
	return nil
}
