package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/certwatch-app/cw-certcheck/internal/config"
	"github.com/certwatch-app/cw-certcheck/internal/scanner"
	"github.com/certwatch-app/cw-certcheck/internal/summary"
)

var (
	checkOutput      string
	checkThreshold   int
	checkFailOnAlert bool
)

var checkCmd = &cobra.Command{
	Use:   "check [host[:port]...]",
	Short: "Check certificates once and print a report",
	Long: `Check the given hosts, or the targets from the config file when none are
given, and print one line per certificate followed by a summary.

Examples:
  cw-certcheck check example.com
  cw-certcheck check example.com api.example.com:8443 --threshold 14
  cw-certcheck check -c certcheck.yaml --output json --fail-on-alert`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", "text", "output format (text or json)")
	checkCmd.Flags().IntVar(&checkThreshold, "threshold", 0, "expiry threshold in days, 0 alerts only on certificates expiring today (overrides config)")
	checkCmd.Flags().BoolVar(&checkFailOnAlert, "fail-on-alert", false, "exit non-zero when any certificate needs attention")
}

func runCheck(cmd *cobra.Command, args []string) error {
	if checkOutput != "text" && checkOutput != "json" {
		return fmt.Errorf("invalid output format %q (use text or json)", checkOutput)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if len(args) > 0 {
		cfg.Targets = cfg.Targets[:0]
		for _, arg := range args {
			t, err := config.ParseTarget(arg)
			if err != nil {
				return err
			}
			cfg.Targets = append(cfg.Targets, t)
		}
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Checks.ExpiryThresholdDays = checkThreshold
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg)
	//nolint:errcheck // best effort flush on exit
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := scanner.New(cfg.ScannerOptions(), logger)
	results := s.ScanAll(ctx, cfg.ScanTargets())
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("check interrupted: %w", err)
	}

	rep := summary.Build(results)

	out := cmd.OutOrStdout()
	if checkOutput == "json" {
		err = rep.WriteJSON(out)
	} else {
		err = rep.Render(out)
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if checkFailOnAlert && rep.HasAlerts() {
		fmt.Fprintf(os.Stderr, "%d certificate(s) need attention\n", rep.Counts.Alerts)
		return fmt.Errorf("alerts raised")
	}

	return nil
}
