package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/linesmerrill/ai-court-api/config"
)

var (
	version = "dev"

	// conf is loaded once before any subcommand runs
	conf *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ai-court-api",
	Short: "Simulated civil trials with generated judges and litigants",
	Long: `ai-court-api runs a civil trial in which one litigant is played by a person
and the judge and the other litigant are played by a text-generation service.

  ai-court-api serve                       # HTTP and websocket API
  ai-court-api play --case case.yaml       # play a trial in the terminal

Configuration is read from the environment, optionally layered over the
file named by CONFIG_FILE.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.New()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		conf = c
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
