package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Log out and clear the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(server)
			if err != nil {
				return err
			}
			return runLogout(env)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Server address (or set GLOWCART_SERVER)")

	return cmd
}

func runLogout(env *Env) error {
	// Best effort server-side: tokens are stateless, so a failure here
	// never blocks clearing local state.
	if token, err := env.token(); err == nil {
		if err := env.API.Logout(token); err != nil {
			fmt.Fprintf(env.Out, "Warning: server logout failed: %v\n", err)
		}
	}

	if err := env.Tokens.DeleteToken(env.Server); err != nil {
		return err
	}
	if err := env.Flow.Logout(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	fmt.Fprintln(env.Out, "✓ Logged out")
	return nil
}
