package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/glowcart-dev/glowcart/internal/authflow"
	"github.com/glowcart-dev/glowcart/internal/session"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd() *cobra.Command {
	var server, email, name, password, code string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account (verifies your email with a one-time code)",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(server)
			if err != nil {
				return err
			}
			return runRegister(env, email, name, password, code)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Server address (or set GLOWCART_SERVER)")
	cmd.Flags().StringVar(&email, "email", "", "Email address to register")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&password, "password", "", "Password (will prompt if not provided)")
	cmd.Flags().StringVar(&code, "code", "", "Verification code (will prompt after sending if not provided)")

	return cmd
}

func runRegister(env *Env, email, name, password, code string) error {
	if email == "" {
		return fmt.Errorf("email is required (use --email flag)")
	}

	// Step 1: request a verification code
	env.Flow.OpenOTP()
	if code == "" {
		fmt.Fprintf(env.Out, "Sending verification code to %s...\n", email)
		if err := env.API.SendOTP(email); err != nil {
			return fmt.Errorf("failed to send verification code: %w", err)
		}

		fmt.Fprint(env.Out, "Enter the 6-digit code from the email: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read code: %w", err)
		}
		code = strings.TrimSpace(line)
	}

	// Step 2: verify it. Success moves the flow to signup with the email
	// carried over, so the account form never re-asks for verification.
	if _, err := env.API.VerifyOTP(email, code, authflow.IntentRegister); err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	env.Flow.OTPVerified(authflow.IntentRegister, email)

	if name == "" {
		fmt.Fprint(env.Out, "Name: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read name: %w", err)
		}
		name = strings.TrimSpace(line)
	}

	if password == "" {
		if !term.IsTerminal(int(syscall.Stdin)) {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag)")
		}
		fmt.Fprint(env.Out, "Password (min 8 chars, letters and digits): ")
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(bytePassword)
		fmt.Fprintln(env.Out)
	}

	// Step 3: create the account for the verified email
	if err := env.Flow.BeginSubmit(); err != nil {
		return err
	}
	resp, err := env.API.Register(env.Flow.VerifiedEmail(), name, password)
	env.Flow.EndSubmit()
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	if err := env.Tokens.SaveToken(env.Server, resp.Token); err != nil {
		return fmt.Errorf("failed to save authentication token: %w", err)
	}

	// Registration doubles as login
	if err := env.Flow.CompleteLogin(session.Session{
		UserID: resp.User.ID,
		Email:  resp.User.Email,
		Role:   session.Role(resp.User.Role),
	}); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	fmt.Fprintln(env.Out, "✓ Account created!")
	fmt.Fprintf(env.Out, "  User: %s (%s)\n", resp.User.Name, resp.User.Email)

	return nil
}
