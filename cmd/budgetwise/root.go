package main

import (
	"os"

	"github.com/spf13/cobra"

	"budgetwise/internal/cli"
	"budgetwise/internal/config"
	applog "budgetwise/internal/log"
)

var (
	cfgFile string
	envFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "budgetwise",
	Short: "Personal finance dashboard",
	Long: `budgetwise serves the personal finance dashboard: transactions,
monthly budgets, monthly savings targets and the analytics overview.

Configuration comes from the environment (optionally a .env file) and an
optional config file.

Example:
  budgetwise serve
  budgetwise summary --month 3 --year 2024
  budgetwise export csv -o report.csv`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return cli.LoadEnvFile(envFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (any format viper reads)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(profileCmd)
}

// loadRuntime validates the configuration and sets up logging. Logs go to
// stderr so command output on stdout stays clean.
func loadRuntime() (*config.Config, *applog.Logger, error) {
	cfg, err := cli.LoadAndValidateConfig(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	logger, err := cli.SetupLogger(cfg.LogLevel, debug, os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
