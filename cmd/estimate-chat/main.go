package main

import (
	"fmt"
	"os"

	"estimate_portal_backend/platform/config"
	"estimate_portal_backend/platform/logger"

	"github.com/spf13/cobra"
)

var (
	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "estimate-chat",
	Short: "Chat with the HVAC estimate assistant in the terminal",
	Long: `Runs an estimate conversation over stdin/stdout using the same catalog,
pricing and validation as the HTTP API.

Commands while chatting:
  /urgency <emergency|urgent|normal|scheduled>  change how soon service is needed
  restart                                       start a new estimate
  cancel                                        discard the current request
  quit                                          leave

Examples:
  # Chat with the built-in catalog and staged replies
  estimate-chat

  # Skip reply delays and store completed leads in the configured lead store
  estimate-chat --no-delay --persist`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
		log = logger.Nop()
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			log = logger.NewWithWriter(cfg.Env, cmd.ErrOrStderr())
		}
		return nil
	},
	RunE: runChat,
}

func init() {
	f := rootCmd.Flags()
	f.Bool("no-delay", false, "print replies immediately instead of staging them")
	f.Bool("persist", false, "store completed leads in the configured lead store")
	f.String("catalog", "", "catalog YAML file (overrides CATALOG_PATH)")
	rootCmd.PersistentFlags().Bool("verbose", false, "log conversation transitions to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
