// Package vaults stores vault aggregates as whole documents.
//
// Every implementation guards Save with the vault's version stamp: a save
// succeeds only when the stored version still equals v.Version, and then
// bumps v.Version. A vault that was never stored has version 0.
package vaults

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/credvault/internal/vault"
)

// Repository loads and saves owner vaults. Load returns common.ErrorNotFound
// when the owner has no stored vault; Save returns common.ErrVersionConflict
// when the stored version moved on.
type Repository interface {
	Load(ctx context.Context, ownerID string) (*vault.Vault, error)
	Save(ctx context.Context, v *vault.Vault) error
}

// encodeAt serializes v as it will look once stored under version.
func encodeAt(v *vault.Vault, version int64) ([]byte, error) {
	prev := v.Version
	v.Version = version
	defer func() { v.Version = prev }()

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode vault: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*vault.Vault, error) {
	v := &vault.Vault{}
	if err := json.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("decode vault: %w", err)
	}
	return v, nil
}
