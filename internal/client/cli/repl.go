package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/credvault/internal/vault"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Recover(ctx context.Context) error
	Add(ctx context.Context, c vault.Category) error
	List(ctx context.Context, c vault.Category) error
	Search(ctx context.Context, c vault.Category, f vault.Field, query string) error
	Update(ctx context.Context, c vault.Category, id string) error
	Remove(ctx context.Context, c vault.Category, id string) error
}

const (
	helpAnonymous = "Available commands: register, login, recover, exit"
	helpLoggedIn  = "Available commands: add <category>, (l)ist <category>, search <category> [field] <query>, " +
		"update <category> <id>, remove <category> <id>, logout, exit\nCategories: mail, social, other, note"
)

// runREPL reads commands from reader line by line and dispatches them to a.
// The first token is the command; record commands take a category and
// possibly an ID or a query as further tokens. The loop exits on EOF or
// when the user types "exit" or "quit".
//
// Errors returned by command handlers are ignored here; handlers report
// their own errors to the user.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("cv> %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpAnonymous)
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "recover":
			_ = a.Recover(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "add", "l", "list", "search", "update", "remove":
			if !a.isLoggedIn() {
				printlnFn("Please login first")
				continue
			}
			runRecordCommand(ctx, a, cmd, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func runRecordCommand(ctx context.Context, a execIface, cmd string, args []string) {
	if len(args) == 0 {
		printlnFn("Usage:", usage(cmd))
		return
	}
	c, err := vault.ParseCategory(args[0])
	if err != nil {
		printlnFn("Unknown category:", args[0])
		return
	}
	args = args[1:]

	switch cmd {
	case "add":
		_ = a.Add(ctx, c)

	case "l", "list":
		_ = a.List(ctx, c)

	case "search":
		var (
			f     = vault.DefaultField(c)
			query string
		)
		switch len(args) {
		case 1:
			query = args[0]
		case 2:
			if f, err = vault.ParseField(args[0]); err != nil {
				printlnFn("Unknown field:", args[0])
				return
			}
			query = args[1]
		default:
			printlnFn("Usage:", usage(cmd))
			return
		}
		_ = a.Search(ctx, c, f, query)

	case "update", "remove":
		if len(args) != 1 {
			printlnFn("Usage:", usage(cmd))
			return
		}
		if cmd == "update" {
			_ = a.Update(ctx, c, args[0])
		} else {
			_ = a.Remove(ctx, c, args[0])
		}
	}
}

func usage(cmd string) string {
	switch cmd {
	case "search":
		return "search <category> [field] <query>"
	case "update", "remove":
		return cmd + " <category> <id>"
	default:
		return cmd + " <category>"
	}
}
