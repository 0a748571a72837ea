package initcmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/huh"

	"github.com/certwatch-app/cw-certcheck/internal/config"
	"github.com/certwatch-app/cw-certcheck/internal/ui"
)

// Wizard manages the interactive configuration wizard.
type Wizard struct {
	state *WizardState
}

// NewWizard creates a new wizard instance.
func NewWizard() *Wizard {
	return &Wizard{
		state: NewWizardState(),
	}
}

// SetOutputPath sets the output path (from command line flag).
func (w *Wizard) SetOutputPath(path string) {
	if path != "" {
		w.state.ConfigPath = path
	}
}

// Run executes the wizard flow.
func (w *Wizard) Run() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		fmt.Println()
		fmt.Println(ui.RenderWarning("Setup canceled by user"))
		os.Exit(0)
	}()

	fmt.Println()
	fmt.Println(ui.RenderHeader("cw-certcheck setup"))
	fmt.Println()

	if err := NewWelcomeForm(w.state).Run(); err != nil {
		return w.handleError(err)
	}

	if err := w.handleExistingFile(); err != nil {
		return err
	}

	fmt.Println(ui.RenderSection("Agent Configuration"))
	if err := NewAgentForm(w.state).Run(); err != nil {
		return w.handleError(err)
	}

	fmt.Println(ui.RenderSection("Check Settings"))
	if err := NewChecksForm(w.state).Run(); err != nil {
		return w.handleError(err)
	}

	fmt.Println(ui.RenderSection("Publishing"))
	if err := NewPublishForm(w.state).Run(); err != nil {
		return w.handleError(err)
	}

	fmt.Println(ui.RenderSection("Targets to Check"))
	if err := w.runTargetForms(); err != nil {
		return w.handleError(err)
	}

	cfg, err := w.state.ToConfig()
	if err != nil {
		return w.handleError(fmt.Errorf("failed to create configuration: %w", err))
	}

	if err := cfg.Validate(); err != nil {
		return w.handleValidationError(err)
	}

	fmt.Println()
	if err := WriteConfig(cfg, w.state.ConfigPath); err != nil {
		return w.handleError(err)
	}

	w.showSuccess(cfg)

	return nil
}

func (w *Wizard) runTargetForms() error {
	for n := 1; ; n++ {
		w.state.ResetCurrentTarget()

		if err := NewTargetForm(w.state, n).Run(); err != nil {
			return err
		}

		w.state.SaveCurrentTarget()

		if !w.state.AddAnother {
			break
		}
	}

	if len(w.state.Targets) == 0 {
		return fmt.Errorf("at least one target is required")
	}

	return nil
}

func (w *Wizard) handleExistingFile() error {
	if !FileExists(w.state.ConfigPath) {
		return nil
	}

	if err := NewOverwriteConfirmForm(w.state, w.state.ConfigPath).Run(); err != nil {
		return w.handleError(err)
	}

	if !w.state.OverwriteFile {
		fmt.Println(ui.RenderWarning("Setup canceled: file already exists"))
		os.Exit(0)
	}

	return nil
}

func (w *Wizard) handleError(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		fmt.Println()
		fmt.Println(ui.RenderWarning("Setup canceled"))
		os.Exit(0)
	}
	fmt.Println()
	fmt.Println(ui.RenderError(err.Error()))
	return err
}

func (w *Wizard) handleValidationError(err error) error {
	fmt.Println()
	fmt.Println(ui.RenderError("Configuration validation failed:"))
	fmt.Println(ui.RenderError("  " + err.Error()))
	fmt.Println()
	fmt.Println(ui.RenderInfo("Please run 'cw-certcheck init' again with corrected values."))
	return err
}

func (w *Wizard) showSuccess(cfg *config.Config) {
	fmt.Println()
	fmt.Println(ui.RenderSuccess("Config written to " + w.state.ConfigPath))
	fmt.Println(ui.RenderSuccess("Validated successfully"))
	fmt.Println()

	publish := "disabled"
	if cfg.PublishEnabled() {
		publish = cfg.Publish.Endpoint
	}

	fmt.Println(ui.TitleStyle.Render("Configuration Summary:"))
	fmt.Println(ui.MutedStyle.Render("  Agent:     ") + cfg.Agent.Name)
	fmt.Println(ui.MutedStyle.Render("  Targets:   ") + fmt.Sprintf("%d", len(cfg.Targets)))
	fmt.Println(ui.MutedStyle.Render("  Scan:      ") + cfg.Agent.ScanInterval.String())
	fmt.Println(ui.MutedStyle.Render("  Threshold: ") + fmt.Sprintf("%d days", cfg.Checks.ExpiryThresholdDays))
	fmt.Println(ui.MutedStyle.Render("  Publish:   ") + publish)
	fmt.Println()

	fmt.Println(ui.TitleStyle.Render("Next steps:"))
	fmt.Println()
	fmt.Println("  To run a one-off check:")
	fmt.Println("    " + ui.RenderCode("cw-certcheck check -c "+w.state.ConfigPath))
	fmt.Println()
	fmt.Println("  To start the agent:")
	fmt.Println("    " + ui.RenderCode("cw-certcheck start -c "+w.state.ConfigPath))
	fmt.Println()
}

// RunNonInteractive builds the config from environment variables and writes
// it to outputPath.
func RunNonInteractive(outputPath string) error {
	state, err := stateFromEnv(os.Getenv)
	if err != nil {
		return err
	}
	state.ConfigPath = outputPath

	cfg, err := state.ToConfig()
	if err != nil {
		return fmt.Errorf("failed to create configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := WriteConfig(cfg, state.ConfigPath); err != nil {
		return err
	}

	fmt.Println(ui.RenderSuccess("Config written to " + state.ConfigPath))
	return nil
}

// stateFromEnv fills a WizardState from CW_* variables.
func stateFromEnv(getenv func(string) string) (*WizardState, error) {
	state := NewWizardState()
	state.AgentName = "default-agent"

	overrides := map[string]*string{
		"CW_AGENT_NAME":                   &state.AgentName,
		"CW_AGENT_SCAN_INTERVAL":          &state.ScanInterval,
		"CW_AGENT_LOG_LEVEL":              &state.LogLevel,
		"CW_AGENT_METRICS_PORT":           &state.MetricsPort,
		"CW_CHECKS_EXPIRY_THRESHOLD_DAYS": &state.ThresholdDays,
		"CW_CHECKS_TIMEOUT":               &state.CheckTimeout,
		"CW_CHECKS_MAX_ATTEMPTS":          &state.MaxAttempts,
		"CW_PUBLISH_ENDPOINT":             &state.APIEndpoint,
		"CW_PUBLISH_KEY":                  &state.APIKey,
	}
	for key, field := range overrides {
		if v := getenv(key); v != "" {
			*field = v
		}
	}

	// a key switches publishing on
	state.EnablePublish = state.APIKey != ""

	targets, err := config.ParseTargets(getenv("CW_TARGETS"))
	if err != nil {
		return nil, fmt.Errorf("CW_TARGETS: %w", err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("CW_TARGETS environment variable is required (comma-separated host[:port] list)")
	}

	for _, t := range targets {
		state.Targets = append(state.Targets, TargetInput{
			Hostname: t.Hostname,
			PortStr:  fmt.Sprintf("%d", t.Port),
		})
	}

	return state, nil
}
