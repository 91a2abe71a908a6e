package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(server)
			if err != nil {
				return err
			}
			return runWhoami(env)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Server address (or set GLOWCART_SERVER)")

	return cmd
}

func runWhoami(env *Env) error {
	sess := env.Sessions.Current()
	if !sess.IsAuthenticated() {
		fmt.Fprintln(env.Out, "Not logged in (guest)")
		return nil
	}

	// Confirm against the server when a token is available; the local
	// session is the fallback for offline use.
	if token, err := env.token(); err == nil {
		if user, err := env.API.Me(token); err == nil {
			fmt.Fprintf(env.Out, "%s (%s)\n", user.Name, user.Email)
			fmt.Fprintf(env.Out, "Role: %s\n", user.Role)
			return nil
		}
	}

	fmt.Fprintf(env.Out, "%s\n", sess.Email)
	fmt.Fprintf(env.Out, "Role: %s (cached)\n", sess.Role)
	return nil
}
