package cmd

import (
	"github.com/rustyeddy/rangetrader/config"
	"github.com/rustyeddy/rangetrader/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "trader",
	Short: "Intraday range reversal and momentum backtester",
	Long: `Trader evaluates intraday range rules against historical bars and keeps
a durable, date-keyed log of the simulated trades.

It provides tools for:
  - Backtesting the reversal and momentum strategies on 15 minute bars
  - Merging new results into an xlsx, csv or sqlite trade log
  - Viewing the trade log and its summary metrics
  - Generating and validating configuration files`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

var (
	cfgFile   string
	envFile   string
	logLevel  string
	logFormat string

	cfg    *config.Config
	logger = zap.NewNop()
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with TRADER_* overrides")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (console, json)")
}

// setup loads the effective configuration and builds the logger. Flags win
// over the environment, which wins over the config file.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnvFile(envFile); err != nil {
		return err
	}

	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		c.Log.Level = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		c.Log.Format = logFormat
	}

	l, err := logging.New(c.Log.Level, c.Log.Format)
	if err != nil {
		return err
	}
	cfg, logger = c, l
	return nil
}
