package owners

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/dbx"
	"github.com/dmitrijs2005/credvault/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, owner *models.Owner) (*models.Owner, error) {
	query :=
		`INSERT INTO owners (id, username, email, full_name, contact_number, password_hash, recovery_secret)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		owner.ID, owner.Username, owner.Email, owner.FullName, owner.ContactNumber,
		owner.PasswordHash, owner.RecoverySecret).Scan(&owner.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: %s", common.ErrorAlreadyExists, pgErr.ConstraintName)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return owner, nil
}

const selectOwner = `SELECT id, username, email, full_name, contact_number, password_hash, recovery_secret, created_at
		 FROM owners`

func (r *PostgresRepository) getBy(ctx context.Context, column, value string) (*models.Owner, error) {
	query := selectOwner + "\n\t\t WHERE " + column + " = $1"

	o := &models.Owner{}
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&o.ID, &o.Username, &o.Email, &o.FullName, &o.ContactNumber,
		&o.PasswordHash, &o.RecoverySecret, &o.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return o, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Owner, error) {
	return r.getBy(ctx, "id", id)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.Owner, error) {
	return r.getBy(ctx, "username", username)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Owner, error) {
	return r.getBy(ctx, "email", email)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM owners WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
