package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/cryptox"
	"github.com/dmitrijs2005/credvault/internal/dbx"
	"github.com/dmitrijs2005/credvault/internal/otp"
	"github.com/dmitrijs2005/credvault/internal/server/auth"
	"github.com/dmitrijs2005/credvault/internal/server/config"
	"github.com/dmitrijs2005/credvault/internal/server/models"
	"github.com/dmitrijs2005/credvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/credvault/internal/vault"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"
)

// Registration is the sign-up form of a new owner.
type Registration struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	FullName      string `json:"fullName"`
	ContactNumber string `json:"contactNumber,omitempty"`
	Password      string `json:"password"`
}

// OwnerService signs owners up and in.
type OwnerService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	codec                       Codec
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	newID                       func() string
}

func NewOwnerService(db *sql.DB, m repomanager.RepositoryManager, codec Codec, cfg *config.Config) *OwnerService {
	return &OwnerService{
		db:                          db,
		repomanager:                 m,
		codec:                       codec,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		newID:                       func() string { return ulid.Make().String() },
	}
}

// Register creates the owner and an empty vault. The password is kept
// twice: bcrypt-hashed for login and codec-sealed for recovery.
func (s *OwnerService) Register(ctx context.Context, r Registration) (*models.Owner, error) {
	hash, err := cryptox.HashPassword(r.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: password longer than 72 bytes", common.ErrorValidation)
		}
		return nil, fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}

	sealed, err := s.codec.Encrypt(r.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: seal recovery secret: %v", common.ErrorInternal, err)
	}

	owner := &models.Owner{
		ID:             s.newID(),
		Username:       r.Username,
		Email:          otp.NormalizeRecipient(r.Email),
		FullName:       r.FullName,
		ContactNumber:  r.ContactNumber,
		PasswordHash:   []byte(hash),
		RecoverySecret: sealed,
	}

	var created *models.Owner
	err = inTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if created, err = s.repomanager.Owners(tx).Create(ctx, owner); err != nil {
			return internal("create owner", err)
		}
		if err := s.repomanager.Vaults(tx).Save(ctx, vault.New(created.ID)); err != nil {
			if tx == nil {
				// Nothing to roll back: drop the owner by hand.
				if derr := s.repomanager.Owners(tx).Delete(ctx, created.ID); derr != nil {
					err = errors.Join(err, derr)
				}
			}
			return internal("create vault", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Login checks the password of username and returns an access token.
// Unknown users and wrong passwords look the same to the caller.
func (s *OwnerService) Login(ctx context.Context, username, password string) (string, error) {
	owner, err := s.repomanager.Owners(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", internal("find owner", err)
	}

	if !cryptox.CheckPassword(string(owner.PasswordHash), password) {
		return "", common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(owner.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", fmt.Errorf("%w: sign token: %v", common.ErrorInternal, err)
	}
	return token, nil
}
