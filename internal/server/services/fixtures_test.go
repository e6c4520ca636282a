package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/credvault/internal/cryptox"
	"github.com/dmitrijs2005/credvault/internal/server/config"
	"github.com/dmitrijs2005/credvault/internal/server/models"
	"github.com/dmitrijs2005/credvault/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) *cryptox.Codec {
	t.Helper()
	c, err := cryptox.NewCodec(cryptox.Keyring{
		Active: "k1",
		Keys:   map[string][]byte{"k1": bytes.Repeat([]byte{7}, cryptox.KeySize)},
	})
	require.NoError(t, err)
	return c
}

func testConfig() *config.Config {
	return &config.Config{SecretKey: "k", AccessTokenValidityDuration: time.Hour}
}

// seedOwner stores an owner directly, bypassing registration.
func seedOwner(t *testing.T, rm repomanager.RepositoryManager, id, email string) *models.Owner {
	t.Helper()
	o, err := rm.Owners(nil).Create(context.Background(), &models.Owner{ID: id, Username: id, Email: email})
	require.NoError(t, err)
	return o
}
