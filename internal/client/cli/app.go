package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/credvault/internal/client/client"
	"github.com/dmitrijs2005/credvault/internal/client/config"
)

type App struct {
	config   *config.Config
	client   client.Client
	userName string
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	cl, err := client.NewGRPCClient(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}
	return newApp(c, cl, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, cl client.Client, in io.Reader, out io.Writer) *App {
	return &App{config: c, client: cl, reader: bufio.NewReader(in), out: out}
}

func (a *App) Run(ctx context.Context) {
	defer a.client.Close()

	pctx, cancel := a.withTimeout(ctx)
	if err := a.client.Ping(pctx); err != nil {
		fmt.Fprintf(a.out, "warning: server %s is not reachable: %v\n", a.config.ServerEndpointAddr, err)
	}
	cancel()

	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

func (a *App) status() string {
	if a.isLoggedIn() {
		return a.userName
	}
	return "not logged in"
}

// withTimeout bounds a single server call.
func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

// report prints err in user terms and returns it unchanged.
func (a *App) report(err error) error {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		a.userName = ""
		fmt.Fprintln(a.out, "error: not authorized, please login again")
	case errors.Is(err, client.ErrUnavailable):
		fmt.Fprintln(a.out, "error: server unavailable, try again later")
	default:
		fmt.Fprintf(a.out, "error: %v\n", err)
	}
	return err
}
