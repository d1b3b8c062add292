package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/hkuds/upilot/internal/acquire"
	"github.com/hkuds/upilot/internal/config"
	"github.com/hkuds/upilot/internal/executor"
	"github.com/hkuds/upilot/internal/workflow"
)

// Status display styles.
var (
	statusTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205")).
				MarginBottom(1).
				Padding(0, 1)

	statusBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Width(64)

	statusSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				MarginTop(1)

	statusLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Width(20)

	statusValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("255"))

	statusOKStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)

	statusDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	statusWarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	statusFailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

// ShowStatus displays the current configuration status.
func ShowStatus(cfg *config.Config) error {
	var sb strings.Builder

	sb.WriteString(statusTitleStyle.Render("upilot Configuration Status"))
	sb.WriteString("\n\n")

	sb.WriteString(statusSectionStyle.Render("Script Generation"))
	sb.WriteString("\n")
	sb.WriteString(renderProviderStatus(cfg))
	sb.WriteString("\n")

	sb.WriteString(statusSectionStyle.Render("Acquisition"))
	sb.WriteString("\n")
	sb.WriteString(renderAcquireStatus(cfg))
	sb.WriteString("\n")

	sb.WriteString(statusSectionStyle.Render("Execution"))
	sb.WriteString("\n")
	sb.WriteString(renderExecuteStatus(cfg))
	sb.WriteString("\n")

	sb.WriteString(statusSectionStyle.Render("Workspace"))
	sb.WriteString("\n")
	sb.WriteString(renderStatusRow("Path", statusValueStyle.Render(cfg.WorkspacePath())))

	fmt.Println(statusBoxStyle.Render(sb.String()))
	return nil
}

func renderProviderStatus(cfg *config.Config) string {
	var sb strings.Builder

	providerName, apiKey, apiBase := cfg.GetActiveProvider()
	if providerName == "" {
		sb.WriteString(renderStatusRow("Generator", statusValueStyle.Render("template (built-in)")))
		sb.WriteString(renderStatusRow("", statusWarnStyle.Render("Run 'upilot setup' to configure a model provider")))
		return sb.String()
	}

	sb.WriteString(renderStatusRow("Provider", statusOKStyle.Render(strings.ToUpper(providerName))))
	if cfg.Codegen.Model != "" {
		sb.WriteString(renderStatusRow("Model", statusValueStyle.Render(cfg.Codegen.Model)))
	}
	if apiBase != "" {
		sb.WriteString(renderStatusRow("API Base", statusValueStyle.Render(apiBase)))
	}
	if apiKey != "" {
		sb.WriteString(renderStatusRow("API Key", statusValueStyle.Render(maskAPIKey(apiKey))))
	}
	return sb.String()
}

func renderAcquireStatus(cfg *config.Config) string {
	var sb strings.Builder
	sb.WriteString(renderStatusRow("Backends", statusValueStyle.Render(strings.Join(cfg.Acquire.Backends, " > "))))
	sb.WriteString(renderStatusRow("Browser Timeout", statusValueStyle.Render(fmt.Sprintf("%ds", cfg.Acquire.BrowserTimeout))))
	sb.WriteString(renderStatusRow("HTTP Timeouts", statusValueStyle.Render(
		fmt.Sprintf("%ds session, %ds basic", cfg.Acquire.HTTPSessionTimeout, cfg.Acquire.HTTPBasicTimeout))))
	return sb.String()
}

func renderExecuteStatus(cfg *config.Config) string {
	var sb strings.Builder
	sb.WriteString(renderStatusRow("Browsers", statusValueStyle.Render(strings.Join(cfg.Execute.Backends, ", "))))
	sb.WriteString(renderStatusRow("Max Attempts", statusValueStyle.Render(fmt.Sprintf("%d per browser", cfg.Execute.MaxAttempts))))
	sb.WriteString(renderStatusRow("Run Timeout", statusValueStyle.Render(fmt.Sprintf("%ds", cfg.Execute.RunTimeout))))
	if cfg.Execute.ForceLocal {
		sb.WriteString(renderStatusRow("Sandbox", statusWarnStyle.Render("local process (Docker disabled)")))
	} else {
		sb.WriteString(renderStatusRow("Sandbox", statusValueStyle.Render(cfg.Execute.Image)))
	}
	return sb.String()
}

// renderStatusRow renders a label-value row.
func renderStatusRow(label, value string) string {
	if label == "" {
		return fmt.Sprintf("  %s\n", value)
	}
	return fmt.Sprintf("  %s %s\n",
		statusLabelStyle.Render(label+":"),
		value,
	)
}

// maskAPIKey masks an API key for display.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

// ShowResult prints a finished workflow result.
func ShowResult(result *workflow.Result) {
	var sb strings.Builder

	verdict := statusFailStyle.Render("FAILED")
	if result.Success {
		verdict = statusOKStyle.Render("SUCCESS")
	}
	sb.WriteString(statusTitleStyle.Render("Workflow " + result.ID))
	sb.WriteString("\n\n")
	sb.WriteString(renderStatusRow("Target", statusValueStyle.Render(result.URL)))
	sb.WriteString(renderStatusRow("Outcome", verdict))
	sb.WriteString(renderStatusRow("Duration", statusValueStyle.Render(result.Duration.Round(time.Millisecond).String())))
	if result.Error != "" {
		sb.WriteString(renderStatusRow("Error", statusFailStyle.Render(result.Error)))
	}

	if len(result.Acquisition) > 0 {
		sb.WriteString("\n")
		sb.WriteString(statusSectionStyle.Render("Acquisition"))
		sb.WriteString("\n")
		for _, a := range result.Acquisition {
			sb.WriteString(renderStatusRow(string(a.Method), renderAcquireAttempt(a)))
		}
	}

	if result.Analysis != nil {
		sb.WriteString("\n")
		sb.WriteString(statusSectionStyle.Render("Page"))
		sb.WriteString("\n")
		sb.WriteString(renderStatusRow("Title", statusValueStyle.Render(result.Analysis.Title)))
		sb.WriteString(renderStatusRow("Score", statusValueStyle.Render(fmt.Sprintf("%.2f", result.Analysis.AutomationScore))))
		sb.WriteString(renderStatusRow("Priorities", statusValueStyle.Render(
			fmt.Sprintf("%d high / %d medium / %d low",
				result.Analysis.HighPriority, result.Analysis.MediumPriority, result.Analysis.LowPriority))))
		if result.Analysis.AuthWall {
			sb.WriteString(renderStatusRow("Auth Wall", statusWarnStyle.Render("detected")))
		}
	}

	if result.Execution != nil && len(result.Execution.Attempts) > 0 {
		sb.WriteString("\n")
		sb.WriteString(statusSectionStyle.Render("Execution"))
		sb.WriteString("\n")
		for _, a := range result.Execution.Attempts {
			label := fmt.Sprintf("%s #%d", a.Backend, a.Number)
			sb.WriteString(renderStatusRow(label, renderExecAttempt(a)))
		}
	}

	fmt.Println(statusBoxStyle.Render(sb.String()))
}

func renderAcquireAttempt(a acquire.Attempt) string {
	switch a.Status {
	case acquire.StatusSuccess:
		return statusOKStyle.Render("ok") + statusDimStyle.Render(fmt.Sprintf(" (%s)", a.Elapsed.Round(time.Millisecond)))
	case acquire.StatusNotAttempted:
		return statusDimStyle.Render("not attempted")
	case acquire.StatusTimeout:
		return statusWarnStyle.Render("timeout: " + a.Reason)
	default:
		return statusFailStyle.Render(a.Reason)
	}
}

func renderExecAttempt(a executor.Attempt) string {
	switch a.Status {
	case executor.StatusSuccess:
		return statusOKStyle.Render("ok") + statusDimStyle.Render(fmt.Sprintf(" (%s)", a.Elapsed.Round(time.Millisecond)))
	case executor.StatusTimeout:
		return statusWarnStyle.Render("timeout: " + a.Reason)
	default:
		return statusFailStyle.Render(a.Reason)
	}
}

// ShowResultList prints persisted workflow results, newest first.
func ShowResultList(results []*workflow.Result) {
	if len(results) == 0 {
		fmt.Println(statusDimStyle.Render("No workflow results yet."))
		return
	}

	fmt.Println(statusTitleStyle.Render("Workflow Results"))
	for _, r := range results {
		verdict := statusFailStyle.Render("fail")
		if r.Success {
			verdict = statusOKStyle.Render("ok  ")
		}
		fmt.Printf("  %s  %s  %s  %s\n",
			verdict,
			statusDimStyle.Render(r.StartedAt.Format("2006-01-02 15:04")),
			statusValueStyle.Render(r.ID[:8]),
			r.URL,
		)
	}
	fmt.Println()
}
