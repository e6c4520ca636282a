package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/credvault/internal/dbx"
	"github.com/dmitrijs2005/credvault/internal/server/repositories/owners"
	"github.com/dmitrijs2005/credvault/internal/server/repositories/vaults"
)

// RepositoryManager vends repositories bound to a database handle, which
// may be a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Owners(db dbx.DBTX) owners.Repository
	Vaults(db dbx.DBTX) vaults.Repository
}

type vaultOverride struct {
	RepositoryManager
	vaults vaults.Repository
}

func (m *vaultOverride) Vaults(dbx.DBTX) vaults.Repository {
	return m.vaults
}

// WithVaults returns m with its vault repository replaced by repo, for vault
// documents kept outside the database.
func WithVaults(m RepositoryManager, repo vaults.Repository) RepositoryManager {
	return &vaultOverride{RepositoryManager: m, vaults: repo}
}
