// Package repomanager wires repository constructors to a storage backend.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/credvault/internal/dbx"
	"github.com/dmitrijs2005/credvault/internal/server/migrations"
	"github.com/dmitrijs2005/credvault/internal/server/repositories/owners"
	"github.com/dmitrijs2005/credvault/internal/server/repositories/vaults"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories and runs
// the embedded schema migrations.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Owners(db dbx.DBTX) owners.Repository {
	return owners.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Vaults(db dbx.DBTX) vaults.Repository {
	return vaults.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}

// MemoryRepositoryManager hands out the same in-memory repositories for
// every handle. It has no schema to migrate.
type MemoryRepositoryManager struct {
	owners *owners.MemoryRepository
	vaults *vaults.MemoryRepository
}

func NewMemoryRepositoryManager() RepositoryManager {
	return &MemoryRepositoryManager{
		owners: owners.NewMemoryRepository(),
		vaults: vaults.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) Owners(dbx.DBTX) owners.Repository { return m.owners }

func (m *MemoryRepositoryManager) Vaults(dbx.DBTX) vaults.Repository { return m.vaults }

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }
