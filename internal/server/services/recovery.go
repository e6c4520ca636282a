package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/otp"
	"github.com/dmitrijs2005/credvault/internal/server/notify"
	"github.com/dmitrijs2005/credvault/internal/server/repositories/repomanager"
)

// Challenger issues and redeems one-time codes. *otp.Manager implements it.
type Challenger interface {
	Issue(ctx context.Context, recipient string) (string, error)
	Verify(ctx context.Context, recipient, code string) error
}

// RecoveryService hands a forgotten master password back to an owner who
// proves control of their email address with a one-time code.
type RecoveryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	otp         Challenger
	sender      notify.Sender
	codec       Codec
}

func NewRecoveryService(db *sql.DB, m repomanager.RepositoryManager, c Challenger, sender notify.Sender, codec Codec) *RecoveryService {
	return &RecoveryService{db: db, repomanager: m, otp: c, sender: sender, codec: codec}
}

// IssueRecovery sends a fresh code to the owner registered with email.
func (s *RecoveryService) IssueRecovery(ctx context.Context, email string) error {
	email = otp.NormalizeRecipient(email)

	if _, err := s.repomanager.Owners(s.db).GetByEmail(ctx, email); err != nil {
		return internal("find owner", err)
	}

	code, err := s.otp.Issue(ctx, email)
	if err != nil {
		return internal("issue code", err)
	}

	if err := s.sender.SendOTP(ctx, email, code); err != nil {
		return fmt.Errorf("%w: deliver code: %v", common.ErrorInternal, err)
	}
	return nil
}

// VerifyRecovery redeems code and returns the owner's master password.
func (s *RecoveryService) VerifyRecovery(ctx context.Context, email, code string) (string, error) {
	email = otp.NormalizeRecipient(email)

	if err := s.otp.Verify(ctx, email, code); err != nil {
		if errors.Is(err, common.ErrOTPInvalid) || errors.Is(err, common.ErrOTPExpired) {
			return "", err
		}
		return "", internal("verify code", err)
	}

	owner, err := s.repomanager.Owners(s.db).GetByEmail(ctx, email)
	if err != nil {
		return "", internal("find owner", err)
	}

	secret, err := s.codec.Decrypt(owner.RecoverySecret)
	if err != nil {
		if !errors.Is(err, common.ErrDecryption) {
			err = fmt.Errorf("%w: %v", common.ErrDecryption, err)
		}
		return "", fmt.Errorf("recovery secret of %s: %w", owner.ID, err)
	}
	return secret, nil
}
