package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/glowcart-dev/glowcart/internal/cli/commands"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "glowcart",
	Short: "Glowcart - Skincare storefront client",
	Long: `Glowcart CLI - Shop the catalog and manage orders from the terminal.

Authenticate once with 'glowcart login'; the session persists in your user
config directory until you log out.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("glowcart version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewRegisterCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewItemsCmd())
	rootCmd.AddCommand(commands.NewCartCmd())
	rootCmd.AddCommand(commands.NewOrdersCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
