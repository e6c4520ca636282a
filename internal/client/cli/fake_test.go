package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/credvault/internal/api"
	"github.com/dmitrijs2005/credvault/internal/client/client"
	"github.com/dmitrijs2005/credvault/internal/client/config"
	"github.com/dmitrijs2005/credvault/internal/vault"
)

type searchCall struct {
	c     vault.Category
	f     vault.Field
	query string
}

type updateCall struct {
	c     vault.Category
	id    string
	patch vault.Patch
}

// fakeClient records what the CLI sends and returns canned answers.
type fakeClient struct {
	closed    bool
	loggedOut bool

	pingErr error

	registered  api.RegisterRequest
	registerErr error

	loginUser, loginPass string
	loginErr             error

	added  []vault.Record
	addErr error

	results  []client.Result
	listErr  error
	searched searchCall

	updated   updateCall
	updateRes client.Result
	updateErr error

	removed   string
	removeErr error

	issuedFor string
	validity  int64
	issueErr  error
	verified  string
	secret    string
	verifyErr error
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func (f *fakeClient) Ping(context.Context) error { return f.pingErr }
func (f *fakeClient) Logout()                    { f.loggedOut = true }

func (f *fakeClient) Register(_ context.Context, req api.RegisterRequest) (string, error) {
	f.registered = req
	if f.registerErr != nil {
		return "", f.registerErr
	}
	return "01OWNER", nil
}

func (f *fakeClient) Login(_ context.Context, username, password string) error {
	f.loginUser, f.loginPass = username, password
	return f.loginErr
}

func (f *fakeClient) AddRecord(_ context.Context, r vault.Record) (vault.Record, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.added = append(f.added, r)
	return vault.WithID(r, "01REC"), nil
}

func (f *fakeClient) SearchRecords(_ context.Context, c vault.Category, fl vault.Field, query string) ([]client.Result, error) {
	f.searched = searchCall{c, fl, query}
	return f.results, f.listErr
}

func (f *fakeClient) ListRecords(context.Context, vault.Category) ([]client.Result, error) {
	return f.results, f.listErr
}

func (f *fakeClient) UpdateRecord(_ context.Context, c vault.Category, id string, p vault.Patch) (client.Result, error) {
	f.updated = updateCall{c, id, p}
	return f.updateRes, f.updateErr
}

func (f *fakeClient) RemoveRecord(_ context.Context, c vault.Category, id string) error {
	f.removed = string(c) + "/" + id
	return f.removeErr
}

func (f *fakeClient) IssueRecovery(_ context.Context, email string) (int64, error) {
	f.issuedFor = email
	return f.validity, f.issueErr
}

func (f *fakeClient) VerifyRecovery(_ context.Context, email, code string) (string, error) {
	f.verified = email + "/" + code
	return f.secret, f.verifyErr
}

// newTestApp wires an App to fc with input as stdin.
func newTestApp(fc *fakeClient, input string) (*App, *bytes.Buffer) {
	out := &bytes.Buffer{}
	cfg := &config.Config{ServerEndpointAddr: "bufnet", RequestTimeout: time.Second}
	return newApp(cfg, fc, bytes.NewBufferString(input), out), out
}

// stubSecrets makes readPassword return values in order.
func stubSecrets(t *testing.T, values ...string) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) {
		if len(values) == 0 {
			t.Fatal("unexpected secret prompt")
		}
		v := values[0]
		values = values[1:]
		return []byte(v), nil
	}
}
