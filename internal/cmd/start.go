package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/certwatch-app/cw-certcheck/internal/agent"
	"github.com/certwatch-app/cw-certcheck/internal/config"
	"github.com/certwatch-app/cw-certcheck/internal/state"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the periodic certificate checker",
	Long: `Start cw-certcheck as a long-running agent. All configured targets are
checked every scan interval, exposed as Prometheus metrics and, when a
collector endpoint is configured, published to it.

Example:
  cw-certcheck start -c /path/to/certcheck.yaml
  cw-certcheck start --config certcheck.yaml`,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if validationErr := cfg.Validate(); validationErr != nil {
		return fmt.Errorf("invalid configuration: %w", validationErr)
	}

	logger := newLogger(cfg)
	//nolint:errcheck // best effort flush on exit
	defer logger.Sync()

	a, err := agent.New(cfg, logger, agent.WithState(newStateManager(cfg)))
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			fmt.Printf("\nReceived signal %v, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	fmt.Printf("Starting cw-certcheck agent '%s'...\n", cfg.Agent.Name)
	fmt.Printf("Monitoring %d target(s)\n", len(cfg.Targets))
	fmt.Printf("Scan interval: %s\n", cfg.Agent.ScanInterval)
	if cfg.Agent.MetricsPort > 0 {
		fmt.Printf("Metrics: http://localhost:%d/metrics\n", cfg.Agent.MetricsPort)
	}

	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("agent error: %w", err)
	}

	fmt.Println("Agent stopped gracefully")
	return nil
}

// newStateManager places the state file in state_dir, next to the config
// file, or in the working directory, in that order.
func newStateManager(cfg *config.Config) *state.Manager {
	if cfg.Agent.StateDir != "" {
		return state.NewManagerWithStateDir(cfg.Agent.StateDir)
	}
	if used := viper.ConfigFileUsed(); used != "" {
		return state.NewManager(used)
	}
	return state.NewManagerWithStateDir(".")
}
