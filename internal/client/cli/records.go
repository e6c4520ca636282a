package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/credvault/internal/client/client"
	"github.com/dmitrijs2005/credvault/internal/vault"
)

type inputKind int

const (
	inputLine inputKind = iota
	inputSecret
	inputMultiline
)

type prompt struct {
	label string
	kind  inputKind
	dst   *string
}

// recordPrompts lists the questions that fill r, in display order.
func recordPrompts(r vault.Record) []prompt {
	switch r := r.(type) {
	case *vault.MailAccount:
		return []prompt{
			{"Email", inputLine, &r.Email},
			{"Secret", inputSecret, &r.Secret},
			{"Description (optional)", inputLine, &r.Description},
		}
	case *vault.SocialAccount:
		return []prompt{
			{"Account name", inputLine, &r.AccountName},
			{"Username", inputLine, &r.Username},
			{"Secret", inputSecret, &r.Secret},
			{"Description (optional)", inputLine, &r.Description},
		}
	case *vault.OtherAccount:
		return []prompt{
			{"Account name", inputLine, &r.AccountName},
			{"Username (optional)", inputLine, &r.Username},
			{"Secret (optional)", inputSecret, &r.Secret},
			{"Description (optional)", inputLine, &r.Description},
		}
	case *vault.Note:
		return []prompt{
			{"Title", inputLine, &r.Title},
			{"Content", inputMultiline, &r.Content},
			{"Description (optional)", inputLine, &r.Description},
		}
	}
	return nil
}

func (a *App) ask(ps []prompt, suffix string) error {
	for _, p := range ps {
		label := "-Enter " + strings.ToLower(p.label[:1]) + p.label[1:] + suffix

		var (
			v   string
			err error
		)
		switch p.kind {
		case inputSecret:
			var b []byte
			b, err = GetSecret(a.out, label)
			v = string(b)
		case inputMultiline:
			v, err = GetMultiline(a.reader, label, a.out)
		default:
			v, err = GetSimpleText(a.reader, label, a.out)
		}
		if err != nil {
			return err
		}
		*p.dst = v
	}
	return nil
}

// patchOf turns the values collected into r into an update patch.
func patchOf(r vault.Record) vault.Patch {
	switch r := r.(type) {
	case *vault.MailAccount:
		return vault.Patch{Email: r.Email, Secret: r.Secret, Description: r.Description}
	case *vault.SocialAccount:
		return vault.Patch{AccountName: r.AccountName, Username: r.Username, Secret: r.Secret, Description: r.Description}
	case *vault.OtherAccount:
		return vault.Patch{AccountName: r.AccountName, Username: r.Username, Secret: r.Secret, Description: r.Description}
	case *vault.Note:
		return vault.Patch{Title: r.Title, Content: r.Content, Description: r.Description}
	}
	return vault.Patch{}
}

func (a *App) Add(ctx context.Context, c vault.Category) error {
	r := vault.NewRecord(c)
	if err := a.ask(recordPrompts(r), ""); err != nil {
		return a.report(err)
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	saved, err := a.client.AddRecord(ctx, r)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Added %s record %s\n", c, saved.RecordID())
	return nil
}

func (a *App) List(ctx context.Context, c vault.Category) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	res, err := a.client.ListRecords(ctx, c)
	if err != nil {
		return a.report(err)
	}
	a.printResults(res)
	return nil
}

func (a *App) Search(ctx context.Context, c vault.Category, f vault.Field, query string) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	res, err := a.client.SearchRecords(ctx, c, f, query)
	if err != nil {
		return a.report(err)
	}
	a.printResults(res)
	return nil
}

func (a *App) Update(ctx context.Context, c vault.Category, id string) error {
	r := vault.NewRecord(c)
	if err := a.ask(recordPrompts(r), " (empty keeps current)"); err != nil {
		return a.report(err)
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	res, err := a.client.UpdateRecord(ctx, c, id, patchOf(r))
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Updated")
	a.printResult(res)
	return nil
}

func (a *App) Remove(ctx context.Context, c vault.Category, id string) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.client.RemoveRecord(ctx, c, id); err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Removed %s record %s\n", c, id)
	return nil
}

func (a *App) printResults(res []client.Result) {
	if len(res) == 0 {
		fmt.Fprintln(a.out, "No records")
		return
	}
	for _, r := range res {
		a.printResult(r)
	}
}

func (a *App) printResult(res client.Result) {
	fmt.Fprintf(a.out, "[%s]\n", res.Record.RecordID())
	for _, p := range recordPrompts(res.Record) {
		if *p.dst == "" {
			continue
		}
		label := strings.TrimSuffix(p.label, " (optional)")
		value := strings.ReplaceAll(*p.dst, "\n", "\n    ")
		fmt.Fprintf(a.out, "  %s: %s\n", label, value)
	}
	if res.Error != "" {
		fmt.Fprintf(a.out, "  error: %s\n", res.Error)
	}
}
