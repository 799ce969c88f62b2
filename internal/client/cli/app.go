package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/conduit/internal/client/client"
	"github.com/dmitrijs2005/conduit/internal/client/config"
	"github.com/dmitrijs2005/conduit/internal/client/session"
)

// ErrNotLoggedIn is returned by commands that need a session when none is
// stored or the stored one has expired.
var ErrNotLoggedIn = errors.New("not logged in, run 'conduit login' first")

// App carries what a single command invocation needs.
type App struct {
	config   *config.Config
	client   client.Client
	sessions *session.Store
	http     *http.Client
	reader   *bufio.Reader
	out      io.Writer
	jsonOut  bool
}

// AppFactory builds the App for a loaded configuration.
type AppFactory func(cfg *config.Config) (*App, error)

// NewApp connects to the configured server. The connection is lazy, so this
// does not fail when the server is down.
func NewApp(cfg *config.Config) (*App, error) {
	c, err := client.NewConduitClient(cfg.ServerAddr)
	if err != nil {
		return nil, err
	}
	return newApp(cfg, c, os.Stdin, os.Stdout), nil
}

func newApp(cfg *config.Config, c client.Client, in io.Reader, out io.Writer) *App {
	return &App{
		config:   cfg,
		client:   c,
		sessions: session.NewStore(cfg.StateDir),
		http:     &http.Client{Timeout: cfg.Timeout},
		reader:   bufio.NewReader(in),
		out:      out,
	}
}

func (a *App) Close() error {
	return a.client.Close()
}

// requestContext bounds a single server call by the configured timeout.
func (a *App) requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, a.config.Timeout)
}

// authorize loads the stored session and hands its token to the client.
func (a *App) authorize() (*session.Session, error) {
	sess, err := a.sessions.Load()
	if errors.Is(err, session.ErrNoSession) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	a.client.SetToken(sess.Token)
	return sess, nil
}

// unauthorized drops a session the server no longer accepts.
func (a *App) unauthorized(err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		_ = a.sessions.Clear()
		return fmt.Errorf("%w; session cleared, log in again", err)
	}
	return err
}
