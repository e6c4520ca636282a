package grpc

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/credvault/internal/api"
	"github.com/dmitrijs2005/credvault/internal/server/auth"
	"github.com/dmitrijs2005/credvault/internal/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var bob = api.RegisterRequest{
	Username: "bob",
	Email:    "Bob@Example.com",
	FullName: "Bob B",
	Password: "hunter2hunter2",
}

// signUp registers bob and returns an access token.
func signUp(t *testing.T, h *harness) string {
	t.Helper()
	ctx := context.Background()

	var reg api.RegisterResponse
	require.NoError(t, h.call(ctx, api.MethodRegister, bob, &reg))
	require.NotEmpty(t, reg.OwnerID)

	var login api.LoginResponse
	require.NoError(t, h.call(ctx, api.MethodLogin, api.LoginRequest{Username: "bob", Password: bob.Password}, &login))
	require.NotEmpty(t, login.AccessToken)
	return login.AccessToken
}

func addRecord(t *testing.T, h *harness, token string, r vault.Record) vault.Record {
	t.Helper()
	req, err := api.NewAddRecordRequest(r)
	require.NoError(t, err)

	var resp api.RecordResponse
	require.NoError(t, h.call(withToken(token), api.MethodAddRecord, req, &resp))
	rec, err := resp.Result.DecodeRecord(resp.Category)
	require.NoError(t, err)
	return rec
}

func TestPing(t *testing.T) {
	h := newHarness(t)

	var resp api.PingResponse
	require.NoError(t, h.call(context.Background(), api.MethodPing, struct{}{}, &resp))
	assert.Equal(t, "OK", resp.Status)
}

func TestAddThenSearch(t *testing.T) {
	h := newHarness(t)
	token := signUp(t, h)

	added := addRecord(t, h, token, &vault.MailAccount{Email: "a@x.com", Secret: "p@ss1"})
	assert.NotEmpty(t, added.RecordID())
	secret, _ := vault.Secret(added)
	assert.Equal(t, "p@ss1", secret)

	var resp api.RecordsResponse
	require.NoError(t, h.call(withToken(token), api.MethodSearchRecords,
		api.SearchRecordsRequest{Category: vault.CategoryMail, Query: "a@x"}, &resp))
	require.Len(t, resp.Results, 1)
	assert.Empty(t, resp.Results[0].Error)

	got, err := resp.Results[0].DecodeRecord(resp.Category)
	require.NoError(t, err)
	assert.Equal(t, added, got)
}

func TestSearch_NoMatch(t *testing.T) {
	h := newHarness(t)
	token := signUp(t, h)

	err := h.call(withToken(token), api.MethodSearchRecords,
		api.SearchRecordsRequest{Category: vault.CategorySocial, Query: "nothing"}, nil)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestListAndUpdateAndRemove(t *testing.T) {
	h := newHarness(t)
	token := signUp(t, h)
	ctx := withToken(token)

	social := addRecord(t, h, token, &vault.SocialAccount{AccountName: "mastodon", Username: "bob", Secret: "secret-1", Description: "fediverse"})
	addRecord(t, h, token, &vault.Note{Title: "wifi", Content: "router in the hall"})

	var upd api.RecordResponse
	require.NoError(t, h.call(ctx, api.MethodUpdateRecord, api.UpdateRecordRequest{
		Category: vault.CategorySocial,
		ID:       social.RecordID(),
		Patch:    vault.Patch{Secret: "secret-2"},
	}, &upd))
	updated, err := upd.Result.DecodeRecord(upd.Category)
	require.NoError(t, err)
	assert.Equal(t, &vault.SocialAccount{
		ID: social.RecordID(), AccountName: "mastodon", Username: "bob", Secret: "secret-2", Description: "fediverse",
	}, updated)

	var list api.RecordsResponse
	require.NoError(t, h.call(ctx, api.MethodListRecords, api.ListRecordsRequest{Category: vault.CategorySocial}, &list))
	require.Len(t, list.Results, 1)

	var removed api.RemoveRecordResponse
	require.NoError(t, h.call(ctx, api.MethodRemoveRecord,
		api.RemoveRecordRequest{Category: vault.CategorySocial, ID: social.RecordID()}, &removed))
	assert.Equal(t, social.RecordID(), removed.Removed)

	err = h.call(ctx, api.MethodRemoveRecord, api.RemoveRecordRequest{Category: vault.CategorySocial, ID: social.RecordID()}, nil)
	assert.Equal(t, codes.NotFound, status.Code(err))

	require.NoError(t, h.call(ctx, api.MethodListRecords, api.ListRecordsRequest{Category: vault.CategorySocial}, &list))
	assert.Empty(t, list.Results)

	require.NoError(t, h.call(ctx, api.MethodListRecords, api.ListRecordsRequest{Category: vault.CategoryNote}, &list))
	assert.Len(t, list.Results, 1)
}

func TestUpdate_UnknownRecord(t *testing.T) {
	h := newHarness(t)
	token := signUp(t, h)

	err := h.call(withToken(token), api.MethodUpdateRecord, api.UpdateRecordRequest{
		Category: vault.CategoryMail, ID: "missing", Patch: vault.Patch{Description: "x"},
	}, nil)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestValidationFailures(t *testing.T) {
	h := newHarness(t)
	token := signUp(t, h)
	ctx := withToken(token)

	tests := []struct {
		name   string
		method string
		req    any
	}{
		{"short mail secret", api.MethodAddRecord, api.AddRecordRequest{Category: vault.CategoryMail, Record: []byte(`{"email":"a@x.com","secret":"p"}`)}},
		{"bad email", api.MethodAddRecord, api.AddRecordRequest{Category: vault.CategoryMail, Record: []byte(`{"email":"nope","secret":"pp"}`)}},
		{"unknown category", api.MethodListRecords, map[string]any{"category": "bank"}},
		{"long description", api.MethodAddRecord, api.AddRecordRequest{Category: vault.CategoryNote,
			Record: []byte(`{"title":"t","content":"c","description":"` + longText + `"}`)}},
		{"short social secret", api.MethodUpdateRecord, api.UpdateRecordRequest{Category: vault.CategorySocial, ID: "r", Patch: vault.Patch{Secret: "12345"}}},
		{"bad otp code", api.MethodVerifyRecovery, api.VerifyRecoveryRequest{Email: "a@x.com", Code: "12ab56"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.call(ctx, tt.method, tt.req, nil)
			assert.Equal(t, codes.InvalidArgument, status.Code(err), "%v", err)
		})
	}
}

var longText = strings.Repeat("x", 101)

func TestAuthentication(t *testing.T) {
	h := newHarness(t)
	signUp(t, h)
	list := api.ListRecordsRequest{Category: vault.CategoryMail}

	err := h.call(context.Background(), api.MethodListRecords, list, nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	err = h.call(withToken("garbage"), api.MethodListRecords, list, nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	expired, err := auth.GenerateToken("someone", []byte(testSecret), -time.Minute)
	require.NoError(t, err)
	err = h.call(withToken(expired), api.MethodListRecords, list, nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, "token expired", status.Convert(err).Message())

	err = h.call(context.Background(), api.MethodLogin, api.LoginRequest{Username: "bob", Password: "wrong"}, nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	err = h.call(context.Background(), api.MethodRegister, bob, nil)
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestRecoveryFlow(t *testing.T) {
	h := newHarness(t)
	signUp(t, h)
	ctx := context.Background()

	err := h.call(ctx, api.MethodIssueRecovery, api.IssueRecoveryRequest{Email: "nobody@example.com"}, nil)
	assert.Equal(t, codes.NotFound, status.Code(err))

	var issued api.IssueRecoveryResponse
	require.NoError(t, h.call(ctx, api.MethodIssueRecovery, api.IssueRecoveryRequest{Email: "bob@example.com"}, &issued))
	assert.Equal(t, int64(300), issued.ValiditySeconds)

	code := h.box.last("bob@example.com")
	require.Len(t, code, 6)

	var verified api.VerifyRecoveryResponse
	require.NoError(t, h.call(ctx, api.MethodVerifyRecovery, api.VerifyRecoveryRequest{Email: "bob@example.com", Code: code}, &verified))
	assert.Equal(t, bob.Password, verified.Secret)

	err = h.call(ctx, api.MethodVerifyRecovery, api.VerifyRecoveryRequest{Email: "bob@example.com", Code: code}, nil)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestDecryptionFailureIsPerRecord(t *testing.T) {
	h := newHarness(t)
	token := signUp(t, h)
	ctx := withToken(token)

	good := addRecord(t, h, token, &vault.MailAccount{Email: "good@x.com", Secret: "pw"})
	bad := addRecord(t, h, token, &vault.MailAccount{Email: "bad@x.com", Secret: "pw"})

	owner, err := h.rm.Owners(nil).GetByUsername(context.Background(), "bob")
	require.NoError(t, err)
	vaults := h.rm.Vaults(nil)
	v, err := vaults.Load(context.Background(), owner.ID)
	require.NoError(t, err)
	require.True(t, v.UpdateRecordByID(vault.CategoryMail, bad.RecordID(), vault.Patch{Secret: "k1$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"}))
	require.NoError(t, vaults.Save(context.Background(), v))

	var resp api.RecordsResponse
	require.NoError(t, h.call(ctx, api.MethodListRecords, api.ListRecordsRequest{Category: vault.CategoryMail}, &resp))
	require.Len(t, resp.Results, 2)

	byID := map[string]api.RecordResult{}
	for _, r := range resp.Results {
		rec, err := r.DecodeRecord(vault.CategoryMail)
		require.NoError(t, err)
		byID[rec.RecordID()] = r
	}
	assert.Empty(t, byID[good.RecordID()].Error)
	assert.Contains(t, byID[bad.RecordID()].Error, "decryption failed")

	// all records broken: the whole call fails
	v, err = vaults.Load(context.Background(), owner.ID)
	require.NoError(t, err)
	require.True(t, v.UpdateRecordByID(vault.CategoryMail, good.RecordID(), vault.Patch{Secret: "k9$x"}))
	require.NoError(t, vaults.Save(context.Background(), v))

	err = h.call(ctx, api.MethodListRecords, api.ListRecordsRequest{Category: vault.CategoryMail}, nil)
	assert.Equal(t, codes.DataLoss, status.Code(err))
}
