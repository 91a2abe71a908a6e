package commands

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/glowcart-dev/glowcart/internal/session"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var server, email, password string
	var promptSignup bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with a Glowcart server",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(server)
			if err != nil {
				return err
			}
			if promptSignup {
				// No account yet: hand over to the signup flow, which
				// verifies the email and carries it into the account form.
				return runRegister(env, email, "", "", "")
			}
			return runLogin(env, email, password)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Server address (or set GLOWCART_SERVER)")
	cmd.Flags().StringVar(&email, "email", "", "Email address (or set GLOWCART_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set GLOWCART_PASSWORD, will prompt if not provided)")
	cmd.Flags().BoolVar(&promptSignup, "prompt-signup", false, "Create an account instead of logging in")

	return cmd
}

func runLogin(env *Env, email, password string) error {
	// Check for environment variables (useful for scripting)
	if email == "" {
		email = os.Getenv("GLOWCART_EMAIL")
	}
	if password == "" {
		password = os.Getenv("GLOWCART_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or GLOWCART_EMAIL env var)")
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		if term.IsTerminal(int(syscall.Stdin)) {
			fmt.Fprint(env.Out, "Password: ")
			bytePassword, err := term.ReadPassword(int(syscall.Stdin))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = string(bytePassword)
			fmt.Fprintln(env.Out)
		} else {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or GLOWCART_PASSWORD env var)")
		}
	}

	env.Flow.OpenLogin(func() {
		fmt.Fprintln(env.Out, "✓ Login successful!")
	})

	// One outstanding attempt at a time
	if err := env.Flow.BeginSubmit(); err != nil {
		return err
	}

	fmt.Fprintf(env.Out, "Logging in to %s...\n", env.Server)
	loginResp, err := env.API.Login(email, password)
	env.Flow.EndSubmit()
	if err != nil {
		// The login step stays open; the user can retry
		return fmt.Errorf("login failed: %w", err)
	}

	if err := env.Tokens.SaveToken(env.Server, loginResp.Token); err != nil {
		return fmt.Errorf("failed to save authentication token: %w", err)
	}

	if err := env.Flow.CompleteLogin(session.Session{
		UserID: loginResp.User.ID,
		Email:  loginResp.User.Email,
		Role:   session.Role(loginResp.User.Role),
	}); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	fmt.Fprintf(env.Out, "  User: %s (%s)\n", loginResp.User.Name, loginResp.User.Email)
	fmt.Fprintf(env.Out, "  Role: %s\n", loginResp.User.Role)

	return nil
}
