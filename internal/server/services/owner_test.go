package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/server/auth"
	"github.com/dmitrijs2005/credvault/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOwnerService(t *testing.T) (*OwnerService, repomanager.RepositoryManager) {
	t.Helper()
	rm := repomanager.NewMemoryRepositoryManager()
	return NewOwnerService(nil, rm, newTestCodec(t), testConfig()), rm
}

var alice = Registration{
	Username:      "alice",
	Email:         " Alice@X.com ",
	FullName:      "Alice A",
	ContactNumber: "+1 555 0100",
	Password:      "correct horse",
}

func TestRegisterAndLogin(t *testing.T) {
	s, rm := newOwnerService(t)
	ctx := context.Background()

	owner, err := s.Register(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, owner.ID, 26, "ULID")
	assert.Equal(t, "alice@x.com", owner.Email)
	assert.NotEqual(t, "correct horse", string(owner.PasswordHash))

	recovered, err := newTestCodec(t).Decrypt(owner.RecoverySecret)
	require.NoError(t, err)
	assert.Equal(t, "correct horse", recovered)

	v, err := rm.Vaults(nil).Load(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Version)
	assert.Empty(t, v.Buckets())

	token, err := s.Login(ctx, "alice", "correct horse")
	require.NoError(t, err)
	id, err := auth.GetOwnerIDFromToken(token, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, owner.ID, id)
}

func TestRegister_Duplicate(t *testing.T) {
	s, _ := newOwnerService(t)
	ctx := context.Background()

	_, err := s.Register(ctx, alice)
	require.NoError(t, err)

	again := alice
	again.Email = "other@x.com"
	_, err = s.Register(ctx, again)
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestRegister_PasswordTooLong(t *testing.T) {
	s, _ := newOwnerService(t)

	r := alice
	r.Password = strings.Repeat("é", 40) // 80 bytes
	_, err := s.Register(context.Background(), r)
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestLogin_Failures(t *testing.T) {
	s, _ := newOwnerService(t)
	ctx := context.Background()
	_, err := s.Register(ctx, alice)
	require.NoError(t, err)

	_, err = s.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = s.Login(ctx, "bob", "correct horse")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestRegister_PostgresTransaction(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT\s+INTO\s+owners`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec(`INSERT\s+INTO\s+vaults`).
		WithArgs("01OWNER", int64(1), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s := NewOwnerService(db, repomanager.NewPostgresRepositoryManager(), newTestCodec(t), testConfig())
	s.newID = func() string { return "01OWNER" }

	owner, err := s.Register(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, "01OWNER", owner.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_PostgresRollback(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT\s+INTO\s+owners`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec(`INSERT\s+INTO\s+vaults`).WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	s := NewOwnerService(db, repomanager.NewPostgresRepositoryManager(), newTestCodec(t), testConfig())

	_, err = s.Register(context.Background(), alice)
	assert.ErrorIs(t, err, common.ErrorInternal)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_MemoryVaultFailureDropsOwner(t *testing.T) {
	rm := repomanager.NewMemoryRepositoryManager()
	failing := repomanager.WithVaults(rm, failingVaults{Repository: rm.Vaults(nil), saveErr: errors.New("bucket gone")})
	ctx := context.Background()

	s := NewOwnerService(nil, failing, newTestCodec(t), testConfig())
	_, err := s.Register(ctx, alice)
	assert.ErrorIs(t, err, common.ErrorInternal)

	_, err = rm.Owners(nil).GetByUsername(ctx, "alice")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = rm.Owners(nil).GetByEmail(ctx, "alice@x.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	// the same username and email can sign up once storage recovers
	s = NewOwnerService(nil, rm, newTestCodec(t), testConfig())
	_, err = s.Register(ctx, alice)
	assert.NoError(t, err)
}
