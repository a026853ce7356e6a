package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/LeJamon/goPriceOracle/internal/config"
	"github.com/LeJamon/goPriceOracle/internal/logging"
)

var (
	// Global flags
	configFile string
	envFile    string
	debug      bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "oracled",
	Short: "oracled - time-series price oracle",
	Long: `oracled records asset prices on a fixed time grid and serves spot,
cross, series and time-weighted average queries over signed JSON-RPC.
Queries are billed per unit against deposited balances.`,
	Version:       "0.1.0-dev",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable normally suppressed debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")
}

// loadConfig reads the configuration and applies its [log] section, adjusted
// by the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFile, envFile)
	if err != nil {
		return nil, err
	}
	switch {
	case debug:
		cfg.Log.Level = logrus.DebugLevel.String()
	case quiet:
		cfg.Log.Level = logrus.WarnLevel.String()
	}
	if err := logging.Configure(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}
