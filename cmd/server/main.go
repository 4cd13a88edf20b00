/*
main.go - Application entry point

PURPOSE:
  Command-line entry for the salary engine. Loads configuration, builds the
  logger and dispatches to a subcommand.

COMMANDS:
  serve      Run the HTTP API (serve.go)
  calculate  Calculate one salary from policy and metrics files (calculate.go)
  validate   Print every validation message for a policy file (calculate.go)

CONFIGURATION:
  config.yaml in the working directory, .env, then SALARY_* environment
  variables. See config/config.go.

EXAMPLES:
  # Run with an in-memory store
  salary-engine serve --db=":memory:"

  # Preview a salary without a server
  salary-engine calculate --policy hybrid.yaml --revenue 6000000 --period 2025-03

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration loading
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/educanvas/salary-engine/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "salary-engine",
	Short: "Instructor salary calculation engine",
	Long:  "Calculates instructor salaries from configurable pay policies and serves the policy and payroll API.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(serveCmd, calculateCmd, validateCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
