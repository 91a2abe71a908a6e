package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/glowcart-dev/glowcart/internal/authflow"
	"github.com/glowcart-dev/glowcart/internal/cli/auth"
	"github.com/glowcart-dev/glowcart/internal/cli/client"
	"github.com/glowcart-dev/glowcart/internal/session"
)

const defaultServer = "http://localhost:8080"

// Env bundles everything a command needs: the API client, the local
// session store with its single writer (the auth flow controller), and the
// keychain token store. Tests construct it directly against a mock server.
type Env struct {
	Server   string
	API      *client.Client
	Sessions *session.Store
	Flow     *authflow.Controller
	Tokens   auth.TokenStore
	Out      io.Writer
}

// newEnv builds the production environment. The server address comes from
// the --server flag or GLOWCART_SERVER.
func newEnv(serverFlag string) (*Env, error) {
	server := serverFlag
	if server == "" {
		server = os.Getenv("GLOWCART_SERVER")
	}
	if server == "" {
		server = defaultServer
	}

	store, err := session.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	return &Env{
		Server:   server,
		API:      client.New(server),
		Sessions: store,
		Flow:     authflow.New(store),
		Tokens:   auth.Default,
		Out:      os.Stdout,
	}, nil
}

// token loads the saved JWT for the configured server
func (e *Env) token() (string, error) {
	return e.Tokens.LoadToken(e.Server)
}

// formatPrice renders cents as a currency amount
func formatPrice(cents int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, currency)
}
