package initcmd

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/certwatch-app/cw-certcheck/internal/ui"
)

// NewWelcomeForm creates the welcome and file configuration form.
func NewWelcomeForm(state *WizardState) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to cw-certcheck setup!").
				Description("This wizard creates a configuration file for cw-certcheck.\n\n"+
					"You'll need:\n"+
					"  • Hostnames (and ports) of the TLS endpoints to check\n"+
					"  • Optionally, a CertWatch API key to publish results"),

			huh.NewInput().
				Title("Config file path").
				Description("Where to save the configuration file").
				Placeholder(DefaultConfigPath).
				Value(&state.ConfigPath).
				Validate(ValidateConfigPath),
		),
	).WithTheme(ui.CreateTheme())
}

// NewAgentForm creates the agent configuration form.
func NewAgentForm(state *WizardState) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Agent Configuration").
				Description("Configure agent behavior"),

			huh.NewInput().
				Title("Agent Name").
				Description("A unique name to identify this agent (e.g., edge-eu-west)").
				Placeholder("my-agent").
				Value(&state.AgentName).
				Validate(ValidateAgentName),

			huh.NewSelect[string]().
				Title("Scan Interval").
				Description("How often every target is checked").
				Options(
					huh.NewOption("15 minutes", "15m"),
					huh.NewOption("1 hour (recommended)", "1h"),
					huh.NewOption("6 hours", "6h"),
					huh.NewOption("24 hours", "24h"),
				).
				Value(&state.ScanInterval),

			huh.NewSelect[string]().
				Title("Log Level").
				Description("Logging verbosity").
				Options(
					huh.NewOption("Debug (verbose)", "debug"),
					huh.NewOption("Info (recommended)", "info"),
					huh.NewOption("Warn", "warn"),
					huh.NewOption("Error (quiet)", "error"),
				).
				Value(&state.LogLevel),

			huh.NewSelect[string]().
				Title("Metrics Server Port").
				Description("Port for the Prometheus endpoint (/metrics)").
				Options(
					huh.NewOption("9402 (default)", "9402"),
					huh.NewOption("9090", "9090"),
					huh.NewOption("8080", "8080"),
					huh.NewOption("Disabled", "0"),
				).
				Value(&state.MetricsPort),
		),
	).WithTheme(ui.CreateTheme())
}

// NewChecksForm creates the check tuning form.
func NewChecksForm(state *WizardState) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Check Settings").
				Description("When a certificate counts as expiring soon, and how patient each check is"),

			huh.NewInput().
				Title("Expiry threshold (days)").
				Description("Certificates expiring within this many days raise an expiry alert").
				Placeholder("30").
				Value(&state.ThresholdDays).
				Validate(ValidateThreshold),

			huh.NewInput().
				Title("Connection timeout").
				Description("Per-attempt connect and handshake timeout").
				Placeholder("5s").
				Value(&state.CheckTimeout).
				Validate(ValidateCheckTimeout),

			huh.NewSelect[string]().
				Title("Attempts per check").
				Options(
					huh.NewOption("1", "1"),
					huh.NewOption("2 (recommended)", "2"),
					huh.NewOption("3", "3"),
				).
				Value(&state.MaxAttempts),
		),
	).WithTheme(ui.CreateTheme())
}

// NewPublishForm asks whether results are pushed to CertWatch.
func NewPublishForm(state *WizardState) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Publish results to CertWatch?").
				Description("Each scan is sent to the collector endpoint").
				Value(&state.EnablePublish).
				Affirmative("Yes").
				Negative("No"),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("CertWatch API Key").
				Placeholder("cw_xxxxxxxx_xxxxxxxxxxxx").
				Value(&state.APIKey).
				EchoMode(huh.EchoModePassword).
				Validate(ValidateAPIKey),

			huh.NewInput().
				Title("Collector endpoint").
				Placeholder("https://api.certwatch.app").
				Value(&state.APIEndpoint).
				Validate(ValidateEndpoint),
		).WithHideFunc(func() bool { return !state.EnablePublish }),
	).WithTheme(ui.CreateTheme())
}

// NewTargetForm creates a target entry form.
func NewTargetForm(state *WizardState, targetNum int) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(fmt.Sprintf("Target #%d", targetNum)).
				Description("Add a TLS endpoint to check"),

			huh.NewInput().
				Title("Hostname").
				Description("The hostname to check (e.g., api.example.com)").
				Placeholder("api.example.com").
				Value(&state.CurrentTarget.Hostname).
				Validate(ValidateHostname),

			huh.NewInput().
				Title("Port").
				Description("TLS port (default: 443)").
				Placeholder("443").
				Value(&state.CurrentTarget.PortStr).
				Validate(ValidatePort),

			huh.NewInput().
				Title("Tags (comma-separated)").
				Description("Optional tags for organization").
				Placeholder("production, api").
				Value(&state.CurrentTarget.Tags).
				Validate(ValidateTags),

			huh.NewInput().
				Title("Notes").
				Description("Optional notes about this target").
				Placeholder("Main API endpoint").
				Value(&state.CurrentTarget.Notes).
				Validate(ValidateNotes),

			huh.NewConfirm().
				Title("Add another target?").
				Value(&state.AddAnother).
				Affirmative("Yes").
				Negative("No"),
		),
	).WithTheme(ui.CreateTheme())
}

// NewOverwriteConfirmForm creates a form to confirm file overwrite.
func NewOverwriteConfirmForm(state *WizardState, path string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("File '%s' already exists. Overwrite?", path)).
				Description("The existing file will be replaced with the new configuration.").
				Value(&state.OverwriteFile).
				Affirmative("Yes, overwrite").
				Negative("No, cancel"),
		),
	).WithTheme(ui.CreateTheme())
}
