// Package tui provides interactive terminal user interface components for upilot.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/hkuds/upilot/internal/config"
)

// Provider represents a script generation provider option.
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderOpenRouter Provider = "openrouter"
	ProviderGroq       Provider = "groq"
	ProviderVLLM       Provider = "vllm"
	ProviderTemplate   Provider = "template"
)

// ModelOptions defines suggested models for each provider.
var ModelOptions = map[Provider][]string{
	ProviderOpenAI: {
		"gpt-4o",
		"gpt-4o-mini",
	},
	ProviderOpenRouter: {
		"anthropic/claude-sonnet-4",
		"openai/gpt-4o",
		"meta-llama/llama-3.1-70b",
	},
	ProviderGroq: {
		"llama-3.3-70b-versatile",
	},
	ProviderVLLM: {}, // User provides model name
}

// Styles for the setup wizard.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginBottom(1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)
)

// SetupState holds the state of the setup wizard.
type SetupState struct {
	Provider    Provider
	APIKey      string
	BaseURL     string
	Model       string
	CustomModel string
	Browsers    []string
	ForceLocal  bool
	Username    string
	Password    string
	Confirmed   bool
}

// RunSetup runs the interactive setup wizard and saves the configuration.
func RunSetup() (*config.Config, error) {
	state := &SetupState{
		BaseURL: "http://localhost:8000/v1",
	}

	if err := runWelcomeStep(state); err != nil {
		return nil, fmt.Errorf("welcome step failed: %w", err)
	}
	if state.Provider != ProviderTemplate {
		if err := runProviderConfigStep(state); err != nil {
			return nil, fmt.Errorf("provider config step failed: %w", err)
		}
		if err := runModelSelectionStep(state); err != nil {
			return nil, fmt.Errorf("model selection step failed: %w", err)
		}
	}
	if err := runExecutionStep(state); err != nil {
		return nil, fmt.Errorf("execution step failed: %w", err)
	}
	if err := runCredentialsStep(state); err != nil {
		return nil, fmt.Errorf("credentials step failed: %w", err)
	}
	if err := runConfirmationStep(state); err != nil {
		return nil, fmt.Errorf("confirmation step failed: %w", err)
	}
	if !state.Confirmed {
		return nil, fmt.Errorf("setup cancelled by user")
	}

	cfg := buildConfigFromState(state)
	if err := config.SaveConfig(cfg, ""); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println(successStyle.Render("\n✓ Configuration saved successfully!"))
	fmt.Println(subtitleStyle.Render("Config file: " + config.GetConfigPath()))
	fmt.Println()

	return cfg, nil
}

// runWelcomeStep displays the welcome message and provider selection.
func runWelcomeStep(state *SetupState) error {
	banner := `
                _ __      __
   __  ______  (_) /___  / /_
  / / / / __ \/ / / __ \/ __/
 / /_/ / /_/ / / / /_/ / /_
 \__,_/ .___/_/_/\____/\__/
     /_/
 Web Automation Pilot
`
	fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Render(banner))

	welcome := boxStyle.Render(
		titleStyle.Render("Welcome to upilot Setup") + "\n\n" +
			"This wizard will help you configure upilot.\n" +
			"You can always edit the configuration later at:\n" +
			subtitleStyle.Render(config.GetConfigPath()),
	)
	fmt.Println(welcome)
	fmt.Println()

	var provider string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select a script generation provider").
				Description("The model writes automation scripts from page analysis").
				Options(
					huh.NewOption("OpenAI (GPT models)", string(ProviderOpenAI)),
					huh.NewOption("OpenRouter (multiple models, one API)", string(ProviderOpenRouter)),
					huh.NewOption("Groq (fast inference)", string(ProviderGroq)),
					huh.NewOption("vLLM/Local (self-hosted)", string(ProviderVLLM)),
					huh.NewOption("None — built-in script templates", string(ProviderTemplate)),
				).
				Value(&provider),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}
	state.Provider = Provider(provider)
	return nil
}

// runProviderConfigStep configures the selected provider.
func runProviderConfigStep(state *SetupState) error {
	if state.Provider == ProviderVLLM {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("vLLM Base URL").
					Description("The OpenAI-compatible endpoint of your server").
					Placeholder("http://localhost:8000/v1").
					Value(&state.BaseURL),
			),
		)
		return form.Run()
	}

	var placeholder string
	switch state.Provider {
	case ProviderOpenAI:
		placeholder = "sk-..."
	case ProviderOpenRouter:
		placeholder = "sk-or-..."
	case ProviderGroq:
		placeholder = "gsk-..."
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("Enter your %s API key", strings.ToUpper(string(state.Provider)))).
				Description("Your API key will be stored locally and never shared").
				Placeholder(placeholder).
				EchoMode(huh.EchoModePassword).
				Value(&state.APIKey).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("API key is required")
					}
					return nil
				}),
		),
	)
	return form.Run()
}

// runModelSelectionStep allows the user to select or enter a model.
func runModelSelectionStep(state *SetupState) error {
	models := ModelOptions[state.Provider]

	if len(models) == 0 {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Enter model name").
					Placeholder("llama3.1").
					Value(&state.CustomModel).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return fmt.Errorf("model name is required")
						}
						return nil
					}),
			),
		)
		if err := form.Run(); err != nil {
			return err
		}
		state.Model = state.CustomModel
		return nil
	}

	options := make([]huh.Option[string], 0, len(models))
	for _, m := range models {
		options = append(options, huh.NewOption(m, m))
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select a model").
				Options(options...).
				Value(&state.Model),
		),
	)
	return form.Run()
}

// runExecutionStep configures the script execution matrix.
func runExecutionStep(state *SetupState) error {
	state.Browsers = []string{"chrome"}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Browsers for script execution").
				Description("Scripts are retried across these, in order").
				Options(
					huh.NewOption("Chrome", "chrome").Selected(true),
					huh.NewOption("Edge", "edge"),
					huh.NewOption("Firefox", "firefox"),
				).
				Value(&state.Browsers),
			huh.NewConfirm().
				Title("Run scripts as local processes instead of Docker?").
				Description("Docker gives stronger isolation; pick local only when Docker is unavailable").
				Value(&state.ForceLocal),
		),
	)
	return form.Run()
}

// runCredentialsStep optionally collects login credentials for template scripts.
func runCredentialsStep(state *SetupState) error {
	var configure bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Configure login credentials?").
				Description("Used by generated scripts on pages with a login wall").
				Value(&configure),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	if !configure {
		return nil
	}

	form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&state.Username),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&state.Password),
		),
	)
	return form.Run()
}

// runConfirmationStep shows a summary and asks for confirmation.
func runConfirmationStep(state *SetupState) error {
	var summary strings.Builder
	summary.WriteString(titleStyle.Render("Configuration Summary"))
	summary.WriteString("\n\n")
	if state.Provider == ProviderTemplate {
		summary.WriteString("Generator: built-in templates\n")
	} else {
		fmt.Fprintf(&summary, "Provider: %s\n", state.Provider)
		fmt.Fprintf(&summary, "Model: %s\n", state.Model)
	}
	fmt.Fprintf(&summary, "Browsers: %s\n", strings.Join(state.Browsers, ", "))
	if state.ForceLocal {
		summary.WriteString("Sandbox: local process\n")
	} else {
		summary.WriteString("Sandbox: Docker (local fallback)\n")
	}
	fmt.Println(boxStyle.Render(summary.String()))

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this configuration?").
				Value(&state.Confirmed),
		),
	)
	return form.Run()
}

// buildConfigFromState converts wizard state into a Config.
func buildConfigFromState(state *SetupState) *config.Config {
	cfg := config.DefaultConfig()

	switch state.Provider {
	case ProviderOpenAI:
		cfg.Providers.OpenAI.APIKey = state.APIKey
	case ProviderOpenRouter:
		cfg.Providers.OpenRouter.APIKey = state.APIKey
	case ProviderGroq:
		cfg.Providers.Groq.APIKey = state.APIKey
	case ProviderVLLM:
		cfg.Providers.VLLM.APIBase = state.BaseURL
		cfg.Providers.VLLM.APIKey = state.APIKey
	case ProviderTemplate:
		cfg.Codegen.Generator = "template"
	}
	if state.Model != "" {
		cfg.Codegen.Model = state.Model
	}
	if len(state.Browsers) > 0 {
		cfg.Execute.Backends = state.Browsers
	}
	cfg.Execute.ForceLocal = state.ForceLocal
	cfg.Codegen.Username = state.Username
	cfg.Codegen.Password = state.Password

	return cfg
}
