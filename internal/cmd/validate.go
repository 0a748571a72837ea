package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate the cw-certcheck configuration file without checking anything.

Example:
  cw-certcheck validate -c /path/to/certcheck.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	fmt.Println("Configuration is valid!")
	fmt.Printf("  Agent name:      %s\n", cfg.Agent.Name)
	fmt.Printf("  Targets:         %d\n", len(cfg.Targets))
	fmt.Printf("  Scan interval:   %s\n", cfg.Agent.ScanInterval)
	fmt.Printf("  Threshold:       %d days\n", cfg.Checks.ExpiryThresholdDays)
	fmt.Printf("  Timeout:         %s x %d attempt(s)\n", cfg.Checks.Timeout, cfg.Checks.MaxAttempts)
	if cfg.PublishEnabled() {
		fmt.Printf("  Publish to:      %s\n", cfg.Publish.Endpoint)
	} else {
		fmt.Println("  Publish to:      (disabled)")
	}

	return nil
}
