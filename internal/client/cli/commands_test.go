package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/credvault/internal/api"
	"github.com/dmitrijs2005/credvault/internal/client/client"
	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/vault"
)

var ctx = context.Background()

func TestRegister(t *testing.T) {
	stubSecrets(t, "pw", "pw")
	fc := &fakeClient{}
	a, out := newTestApp(fc, "bob\nbob@x.com\nBob Builder\n\n")

	require.NoError(t, a.Register(ctx))
	assert.Equal(t, api.RegisterRequest{
		Username: "bob",
		Email:    "bob@x.com",
		FullName: "Bob Builder",
		Password: "pw",
	}, fc.registered)
	assert.Contains(t, out.String(), "owner id 01OWNER")
	assert.False(t, a.isLoggedIn())
}

func TestRegister_PasswordMismatch(t *testing.T) {
	stubSecrets(t, "pw", "px")
	fc := &fakeClient{}
	a, out := newTestApp(fc, "bob\nbob@x.com\nBob\n\n")

	err := a.Register(ctx)
	assert.ErrorIs(t, err, errPasswordMismatch)
	assert.Empty(t, fc.registered.Username)
	assert.Contains(t, out.String(), "passwords do not match")
}

func TestRegister_Taken(t *testing.T) {
	stubSecrets(t, "pw", "pw")
	fc := &fakeClient{registerErr: common.ErrorAlreadyExists}
	a, out := newTestApp(fc, "bob\nbob@x.com\nBob\n+371\n")

	assert.ErrorIs(t, a.Register(ctx), common.ErrorAlreadyExists)
	assert.Equal(t, "+371", fc.registered.ContactNumber)
	assert.Contains(t, out.String(), "already taken")
}

func TestLoginLogout(t *testing.T) {
	stubSecrets(t, "pw")
	fc := &fakeClient{}
	a, out := newTestApp(fc, "bob\n")

	require.NoError(t, a.Login(ctx))
	assert.Equal(t, "bob", fc.loginUser)
	assert.Equal(t, "pw", fc.loginPass)
	assert.True(t, a.isLoggedIn())
	assert.Equal(t, "bob", a.status())
	assert.Contains(t, out.String(), "Login successful")

	require.NoError(t, a.Logout(ctx))
	assert.True(t, fc.loggedOut)
	assert.False(t, a.isLoggedIn())
	assert.Equal(t, "not logged in", a.status())
}

func TestLogin_Rejected(t *testing.T) {
	stubSecrets(t, "bad")
	fc := &fakeClient{loginErr: fmt.Errorf("%w: invalid credentials", client.ErrUnauthorized)}
	a, out := newTestApp(fc, "bob\n")

	assert.Error(t, a.Login(ctx))
	assert.False(t, a.isLoggedIn())
	assert.Contains(t, out.String(), "invalid username or password")
}

func TestAdd(t *testing.T) {
	tests := []struct {
		name    string
		c       vault.Category
		input   string
		secrets []string
		want    vault.Record
	}{
		{
			name:    "mail",
			c:       vault.CategoryMail,
			input:   "a@x.com\nwork\n",
			secrets: []string{"s1"},
			want:    &vault.MailAccount{Email: "a@x.com", Secret: "s1", Description: "work"},
		},
		{
			name:    "social",
			c:       vault.CategorySocial,
			input:   "github\nbob\n\n",
			secrets: []string{"s2"},
			want:    &vault.SocialAccount{AccountName: "github", Username: "bob", Secret: "s2"},
		},
		{
			name:    "other without secret",
			c:       vault.CategoryOther,
			input:   "router\n\nhome\n",
			secrets: []string{""},
			want:    &vault.OtherAccount{AccountName: "router", Description: "home"},
		},
		{
			name:  "note",
			c:     vault.CategoryNote,
			input: "todo\nmilk\neggs\n\n\n",
			want:  &vault.Note{Title: "todo", Content: "milk\neggs"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubSecrets(t, tt.secrets...)
			fc := &fakeClient{}
			a, out := newTestApp(fc, tt.input)

			require.NoError(t, a.Add(ctx, tt.c))
			require.Len(t, fc.added, 1)
			assert.Equal(t, tt.want, fc.added[0])
			assert.Contains(t, out.String(), fmt.Sprintf("Added %s record 01REC", tt.c))
		})
	}
}

func TestAdd_ValidationError(t *testing.T) {
	stubSecrets(t, "s")
	fc := &fakeClient{addErr: fmt.Errorf("%w: email is required", common.ErrorValidation)}
	a, out := newTestApp(fc, "\n\n")

	assert.ErrorIs(t, a.Add(ctx, vault.CategoryMail), common.ErrorValidation)
	assert.Contains(t, out.String(), "error: validation error: email is required")
}

func TestList(t *testing.T) {
	fc := &fakeClient{results: []client.Result{
		{Record: &vault.MailAccount{ID: "r1", Email: "a@x.com", Secret: "s"}},
		{Record: &vault.MailAccount{ID: "r2", Email: "b@x.com"}, Error: "decryption failed"},
		{Record: &vault.Note{ID: "r3", Title: "t", Content: "one\ntwo"}},
	}}
	a, out := newTestApp(fc, "")

	require.NoError(t, a.List(ctx, vault.CategoryMail))
	got := out.String()
	assert.Contains(t, got, "[r1]\n  Email: a@x.com\n  Secret: s\n")
	assert.Contains(t, got, "[r2]\n  Email: b@x.com\n  error: decryption failed\n")
	assert.Contains(t, got, "  Content: one\n    two\n")
}

func TestList_Empty(t *testing.T) {
	a, out := newTestApp(&fakeClient{}, "")
	require.NoError(t, a.List(ctx, vault.CategoryNote))
	assert.Equal(t, "No records\n", out.String())
}

func TestSearch(t *testing.T) {
	fc := &fakeClient{results: []client.Result{
		{Record: &vault.SocialAccount{ID: "r1", AccountName: "github", Username: "bob", Secret: "s"}},
	}}
	a, out := newTestApp(fc, "")

	require.NoError(t, a.Search(ctx, vault.CategorySocial, vault.FieldUsername, "bo"))
	assert.Equal(t, searchCall{vault.CategorySocial, vault.FieldUsername, "bo"}, fc.searched)
	assert.Contains(t, out.String(), "  Account name: github\n  Username: bob\n")
}

func TestUpdate(t *testing.T) {
	stubSecrets(t, "")
	fc := &fakeClient{updateRes: client.Result{
		Record: &vault.SocialAccount{ID: "r1", AccountName: "github", Username: "alice", Secret: "s"},
	}}
	a, out := newTestApp(fc, "\nalice\n\n")

	require.NoError(t, a.Update(ctx, vault.CategorySocial, "r1"))
	assert.Equal(t, updateCall{vault.CategorySocial, "r1", vault.Patch{Username: "alice"}}, fc.updated)
	assert.Contains(t, out.String(), "(empty keeps current)")
	assert.Contains(t, out.String(), "Updated\n[r1]\n")
}

func TestRemove(t *testing.T) {
	fc := &fakeClient{}
	a, out := newTestApp(fc, "")

	require.NoError(t, a.Remove(ctx, vault.CategoryOther, "r9"))
	assert.Equal(t, "other/r9", fc.removed)
	assert.Contains(t, out.String(), "Removed other record r9")

	fc.removeErr = fmt.Errorf("%w: record r9", common.ErrorNotFound)
	out.Reset()
	assert.ErrorIs(t, a.Remove(ctx, vault.CategoryOther, "r9"), common.ErrorNotFound)
	assert.Contains(t, out.String(), "error: not found: record r9")
}

func TestSessionExpiry(t *testing.T) {
	fc := &fakeClient{listErr: fmt.Errorf("%w: token expired", client.ErrUnauthorized)}
	a, out := newTestApp(fc, "")
	a.userName = "bob"

	assert.Error(t, a.List(ctx, vault.CategoryMail))
	assert.False(t, a.isLoggedIn())
	assert.Contains(t, out.String(), "please login again")
}

func TestRecover(t *testing.T) {
	fc := &fakeClient{validity: 300, secret: "master-pw"}
	a, out := newTestApp(fc, "a@x.com\n123456\n")

	require.NoError(t, a.Recover(ctx))
	assert.Equal(t, "a@x.com", fc.issuedFor)
	assert.Equal(t, "a@x.com/123456", fc.verified)
	assert.Contains(t, out.String(), "valid for 300 seconds")
	assert.Contains(t, out.String(), "Your master password: master-pw")
}

func TestRecover_Errors(t *testing.T) {
	tests := []struct {
		name string
		fc   *fakeClient
		want string
	}{
		{"unknown email", &fakeClient{issueErr: fmt.Errorf("%w: owner", common.ErrorNotFound)}, "error: not found"},
		{"wrong code", &fakeClient{verifyErr: common.ErrOTPInvalid}, "the code is not valid"},
		{"expired code", &fakeClient{verifyErr: common.ErrOTPExpired}, "the code has expired"},
		{"offline", &fakeClient{issueErr: client.ErrUnavailable}, "server unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, out := newTestApp(tt.fc, "a@x.com\n000000\n")
			assert.Error(t, a.Recover(ctx))
			assert.Contains(t, out.String(), tt.want)
			assert.NotContains(t, out.String(), "master password")
		})
	}
}

func TestRun(t *testing.T) {
	captureOutput(t)
	fc := &fakeClient{pingErr: errors.New("connection refused")}
	a, out := newTestApp(fc, "exit\n")

	a.Run(ctx)
	assert.True(t, fc.closed)
	assert.Contains(t, out.String(), "warning: server bufnet is not reachable")
}
