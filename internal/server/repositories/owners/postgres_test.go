package owners

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const insertQ = `(?s)^INSERT\s+INTO\s+owners\s*\(id,\s*username,\s*email,\s*full_name,\s*contact_number,\s*password_hash,\s*recovery_secret\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7\)\s*RETURNING\s+created_at\s*$`

func testOwner() *models.Owner {
	return &models.Owner{
		ID:             "01HZX",
		Username:       "alice",
		Email:          "alice@x.com",
		FullName:       "Alice A",
		ContactNumber:  "+100",
		PasswordHash:   []byte("hash"),
		RecoverySecret: "k1$ct",
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(insertQ).
		WithArgs("01HZX", "alice", "alice@x.com", "Alice A", "+100", []byte("hash"), "k1$ct").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	got, err := repo.Create(context.Background(), testOwner())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "01HZX" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected owner: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "owners_email_key"})

	_, err := repo.Create(context.Background(), testOwner())
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want ErrorAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), testOwner())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

var ownerColumns = []string{"id", "username", "email", "full_name", "contact_number", "password_hash", "recovery_secret", "created_at"}

func TestGetters_Found(t *testing.T) {
	tests := []struct {
		name   string
		column string
		value  string
		call   func(*PostgresRepository, string) (*models.Owner, error)
	}{
		{"by id", "id", "01HZX", func(r *PostgresRepository, v string) (*models.Owner, error) {
			return r.GetByID(context.Background(), v)
		}},
		{"by username", "username", "alice", func(r *PostgresRepository, v string) (*models.Owner, error) {
			return r.GetByUsername(context.Background(), v)
		}},
		{"by email", "email", "alice@x.com", func(r *PostgresRepository, v string) (*models.Owner, error) {
			return r.GetByEmail(context.Background(), v)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			q := `(?s)^SELECT\s+id,\s*username,.*FROM\s+owners\s+WHERE\s+` + tt.column + `\s*=\s*\$1\s*$`
			rows := sqlmock.NewRows(ownerColumns).
				AddRow("01HZX", "alice", "alice@x.com", "Alice A", "+100", []byte("hash"), "k1$ct", time.Now())
			mock.ExpectQuery(q).WithArgs(tt.value).WillReturnRows(rows)

			got, err := tt.call(repo, tt.value)
			if err != nil {
				t.Fatalf("error: %v", err)
			}
			if got.Username != "alice" || got.RecoverySecret != "k1$ct" || string(got.PasswordHash) != "hash" {
				t.Fatalf("unexpected owner: %+v", got)
			}
		})
	}
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+owners\s+WHERE\s+email`).
		WithArgs("ghost@x.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@x.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetByID_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+owners\s+WHERE\s+id`).
		WithArgs("x").
		WillReturnError(errors.New("db err"))

	_, err := repo.GetByID(context.Background(), "x")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	deleteQ := `^DELETE\s+FROM\s+owners\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectExec(deleteQ).WithArgs("01HZX").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteQ).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(deleteQ).WithArgs("x").WillReturnError(errors.New("db err"))

	if err := repo.Delete(context.Background(), "01HZX"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := repo.Delete(context.Background(), "ghost"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
	if err := repo.Delete(context.Background(), "x"); err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
