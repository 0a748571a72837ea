// Package cmd provides CLI commands for cw-certcheck.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/certwatch-app/cw-certcheck/internal/config"
	"github.com/certwatch-app/cw-certcheck/internal/logging"
	"github.com/certwatch-app/cw-certcheck/internal/version"
)

var (
	cfgFile string
	verbose bool

	// set when an explicitly requested config file could not be read
	configReadErr error
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   version.Name,
	Short: "cw-certcheck - TLS certificate expiry and trust checker",
	Long: `cw-certcheck connects to TLS endpoints, reads the served certificate and
reports whether it is valid, close to expiry, expired or untrusted.

Check a few hosts once:
  cw-certcheck check example.com api.example.com:8443

Or configure targets in certcheck.yaml and run continuously:
  cw-certcheck start -c /path/to/certcheck.yaml

For more information, visit: https://certwatch.app/docs/certcheck`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./certcheck.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	//nolint:errcheck // error is ignored because the flag is guaranteed to exist
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// a missing .env is fine
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/certwatch")
		viper.SetConfigType("yaml")
		viper.SetConfigName("certcheck")
	}

	// CW_CHECKS_TIMEOUT overrides checks.timeout
	viper.SetEnvPrefix("CW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if cfgFile != "" {
			configReadErr = err
		}
		return
	}
	if verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig loads the configuration from viper without validating it.
func loadConfig() (*config.Config, error) {
	if configReadErr != nil {
		return nil, fmt.Errorf("failed to read config file: %w", configReadErr)
	}

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger; --verbose forces debug.
func newLogger(cfg *config.Config) *zap.Logger {
	level := cfg.Agent.LogLevel
	if verbose {
		level = "debug"
	}
	return logging.New(level)
}

// GetVersion returns the version information
func GetVersion() string {
	return version.GetVersion()
}
