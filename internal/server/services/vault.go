package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/credvault/internal/vault"
	"github.com/google/uuid"
)

// Result is one record returned by a read. When its secret could not be
// decrypted the record carries an empty secret and Err matches
// common.ErrDecryption.
type Result struct {
	Record vault.Record
	Err    error
}

// VaultService is the credential CRUD engine. Every mutation loads the
// owner's vault, changes it in memory and saves it back in one call; a
// concurrent change in between surfaces as common.ErrVersionConflict.
type VaultService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       Codec
	newID       func() string
}

func NewVaultService(db *sql.DB, m repomanager.RepositoryManager, codec Codec) *VaultService {
	return &VaultService{db: db, repomanager: m, codec: codec, newID: uuid.NewString}
}

// load returns the owner's vault, or an empty unsaved one. An unknown owner
// is common.ErrorNotFound.
func (s *VaultService) load(ctx context.Context, ownerID string) (*vault.Vault, error) {
	if _, err := s.repomanager.Owners(s.db).GetByID(ctx, ownerID); err != nil {
		return nil, internal("find owner", err)
	}

	v, err := s.repomanager.Vaults(s.db).Load(ctx, ownerID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return vault.New(ownerID), nil
		}
		return nil, internal("load vault", err)
	}
	return v, nil
}

func (s *VaultService) save(ctx context.Context, v *vault.Vault) error {
	if err := s.repomanager.Vaults(s.db).Save(ctx, v); err != nil {
		return internal("save vault", err)
	}
	return nil
}

// seal encrypts a non-empty secret. Empty optional secrets stay empty.
func (s *VaultService) seal(secret string) (string, error) {
	if secret == "" {
		return "", nil
	}
	ct, err := s.codec.Encrypt(secret)
	if err != nil {
		return "", fmt.Errorf("%w: encrypt secret: %v", common.ErrorInternal, err)
	}
	return ct, nil
}

// Add stores r under a fresh ID in the vault of ownerID and returns the
// stored record with its plaintext secret.
func (s *VaultService) Add(ctx context.Context, ownerID string, r vault.Record) (vault.Record, error) {
	v, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	plain, _ := vault.Secret(r)
	ct, err := s.seal(plain)
	if err != nil {
		return nil, err
	}

	stored := vault.WithID(vault.WithSecret(r, ct), s.newID())
	v.AppendRecord(stored)

	if err := s.save(ctx, v); err != nil {
		return nil, err
	}
	return vault.WithSecret(stored, plain), nil
}

// Search returns the records of category c whose field f contains query,
// with secrets decrypted. No match is common.ErrorNotFound.
func (s *VaultService) Search(ctx context.Context, ownerID string, c vault.Category, f vault.Field, query string) ([]Result, error) {
	v, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	matches := v.SearchRecords(c, query, f)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no %s records with %s containing %q: %w", c, f, query, common.ErrorNotFound)
	}
	return s.reveal(matches)
}

// List returns every record of category c with secrets decrypted.
func (s *VaultService) List(ctx context.Context, ownerID string, c vault.Category) ([]Result, error) {
	v, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.reveal(v.ListRecords(c))
}

// Update merges p into record id of category c. Empty patch fields keep
// the stored value.
func (s *VaultService) Update(ctx context.Context, ownerID string, c vault.Category, id string, p vault.Patch) (Result, error) {
	v, err := s.load(ctx, ownerID)
	if err != nil {
		return Result{}, err
	}

	if c == vault.CategoryNote {
		p.Secret = ""
	}
	if p.Secret, err = s.seal(p.Secret); err != nil {
		return Result{}, err
	}

	if !v.UpdateRecordByID(c, id, p) {
		return Result{}, fmt.Errorf("%s record %s: %w", c, id, common.ErrorNotFound)
	}

	if err := s.save(ctx, v); err != nil {
		return Result{}, err
	}

	r, _ := v.FindRecordByID(c, id)
	res, _ := s.reveal([]vault.Record{r})
	return res[0], nil
}

// Remove deletes record id of category c.
func (s *VaultService) Remove(ctx context.Context, ownerID string, c vault.Category, id string) error {
	v, err := s.load(ctx, ownerID)
	if err != nil {
		return err
	}

	if !v.RemoveRecordByID(c, id) {
		return fmt.Errorf("%s record %s: %w", c, id, common.ErrorNotFound)
	}
	return s.save(ctx, v)
}

// reveal decrypts the secret of every record. Failures are reported per
// record; the call fails only when every record failed.
func (s *VaultService) reveal(records []vault.Record) ([]Result, error) {
	out := make([]Result, 0, len(records))
	failed := 0

	for _, r := range records {
		ct, ok := vault.Secret(r)
		if !ok || ct == "" {
			out = append(out, Result{Record: r})
			continue
		}

		plain, err := s.codec.Decrypt(ct)
		if err != nil {
			failed++
			if !errors.Is(err, common.ErrDecryption) {
				err = fmt.Errorf("%w: %v", common.ErrDecryption, err)
			}
			out = append(out, Result{
				Record: vault.WithSecret(r, ""),
				Err:    fmt.Errorf("%s record %s: %w", r.Category(), r.RecordID(), err),
			})
			continue
		}
		out = append(out, Result{Record: vault.WithSecret(r, plain)})
	}

	if failed > 0 && failed == len(records) {
		return out, fmt.Errorf("%w: none of %d records could be decrypted", common.ErrDecryption, failed)
	}
	return out, nil
}
