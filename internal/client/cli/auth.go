package cli

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/credvault/internal/api"
	"github.com/dmitrijs2005/credvault/internal/client/client"
	"github.com/dmitrijs2005/credvault/internal/common"
)

var errPasswordMismatch = errors.New("passwords do not match")

func (a *App) Register(ctx context.Context) error {
	var (
		req api.RegisterRequest
		err error
	)
	prompts := []struct {
		text string
		dst  *string
	}{
		{"-Enter username", &req.Username},
		{"-Enter email", &req.Email},
		{"-Enter full name", &req.FullName},
		{"-Enter contact number (optional)", &req.ContactNumber},
	}
	for _, p := range prompts {
		if *p.dst, err = GetSimpleText(a.reader, p.text, a.out); err != nil {
			return a.report(err)
		}
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return a.report(err)
	}
	defer common.WipeByteArray(password)

	repeat, err := GetSecret(a.out, "Repeat password")
	if err != nil {
		return a.report(err)
	}
	defer common.WipeByteArray(repeat)

	if subtle.ConstantTimeCompare(password, repeat) != 1 {
		return a.report(errPasswordMismatch)
	}
	req.Password = string(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	id, err := a.client.Register(ctx, req)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			fmt.Fprintln(a.out, "error: username or email is already taken")
			return err
		}
		return a.report(err)
	}

	fmt.Fprintf(a.out, "Registered, owner id %s. You can login now.\n", id)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	userName, err := GetSimpleText(a.reader, "-Enter username", a.out)
	if err != nil {
		return a.report(err)
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return a.report(err)
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.client.Login(ctx, userName, string(password)); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			fmt.Fprintln(a.out, "Login unsuccessful: invalid username or password")
			return err
		}
		return a.report(err)
	}

	a.userName = userName
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.client.Logout()
	a.userName = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// Recover runs the two step recovery flow: request a one-time code for an
// email address, then trade the code for the master password.
func (a *App) Recover(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "-Enter account email", a.out)
	if err != nil {
		return a.report(err)
	}

	ictx, cancel := a.withTimeout(ctx)
	validity, err := a.client.IssueRecovery(ictx, email)
	cancel()
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "A recovery code was sent to %s, it is valid for %d seconds\n", email, validity)

	code, err := GetSimpleText(a.reader, "-Enter recovery code", a.out)
	if err != nil {
		return a.report(err)
	}

	vctx, cancel := a.withTimeout(ctx)
	defer cancel()

	secret, err := a.client.VerifyRecovery(vctx, email, code)
	switch {
	case errors.Is(err, common.ErrOTPInvalid):
		fmt.Fprintln(a.out, "error: the code is not valid")
		return err
	case errors.Is(err, common.ErrOTPExpired):
		fmt.Fprintln(a.out, "error: the code has expired, request a new one")
		return err
	case err != nil:
		return a.report(err)
	}

	fmt.Fprintf(a.out, "Your master password: %s\n", secret)
	return nil
}
