package cmd

import (
	"github.com/spf13/cobra"

	"github.com/certwatch-app/cw-certcheck/internal/cmd/initcmd"
)

var (
	initOutputPath     string
	initNonInteractive bool
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new cw-certcheck configuration",
	Long: `Interactively create a new cw-certcheck configuration file.

The wizard will guide you through setting up:
  • Agent behavior (name, scan interval, metrics port)
  • Check settings (expiry threshold, timeout, attempts)
  • Optional publishing to a collector endpoint
  • Targets to check (hostnames, ports, tags)

Examples:
  # Interactive mode (default)
  cw-certcheck init

  # Specify output path
  cw-certcheck init -o /etc/certwatch/certcheck.yaml

  # Non-interactive mode (for CI/scripting)
  CW_TARGETS=example.com,api.example.com:8443 cw-certcheck init --non-interactive

Environment variables for non-interactive mode:
  CW_TARGETS                       (required) Comma-separated host[:port] list
  CW_AGENT_NAME                    (optional) Agent name (default: default-agent)
  CW_AGENT_SCAN_INTERVAL           (optional) Scan interval (default: 1h)
  CW_AGENT_LOG_LEVEL               (optional) Log level (default: info)
  CW_AGENT_METRICS_PORT            (optional) Metrics port, 0 disables (default: 9402)
  CW_CHECKS_EXPIRY_THRESHOLD_DAYS  (optional) Expiry threshold (default: 30)
  CW_CHECKS_TIMEOUT                (optional) Per-attempt timeout (default: 5s)
  CW_CHECKS_MAX_ATTEMPTS           (optional) Attempts per target (default: 2)
  CW_PUBLISH_KEY                   (optional) Collector API key, enables publishing
  CW_PUBLISH_ENDPOINT              (optional) Collector endpoint (default: https://api.certwatch.app)`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", initcmd.DefaultConfigPath,
		"Output path for the configuration file")
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false,
		"Run in non-interactive mode using environment variables")
}

func runInit(_ *cobra.Command, _ []string) error {
	if initNonInteractive {
		return initcmd.RunNonInteractive(initOutputPath)
	}

	wizard := initcmd.NewWizard()
	wizard.SetOutputPath(initOutputPath)
	return wizard.Run()
}
