package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/hkuds/upilot/internal/acquire"
	"github.com/hkuds/upilot/internal/browser"
	"github.com/hkuds/upilot/internal/config"
	"github.com/hkuds/upilot/internal/page"
	"github.com/spf13/cobra"
)

var httpOnlyFlag bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>",
	Short: "Acquire and analyze a page without executing anything",
	Long:  "Fetch the page through the configured acquisition strategies, build the page model, and print the prioritized elements. No script is generated or executed.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&httpOnlyFlag, "http-only", false, "Skip the browser strategy and use plain HTTP only")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var strategies []acquire.Strategy
	if !httpOnlyFlag {
		browserCfg := browser.Config{
			Headless:       cfg.Browser.Headless,
			NoSandbox:      cfg.Browser.NoSandbox,
			ChromePath:     cfg.Browser.ChromePath,
			WindowWidth:    cfg.Browser.WindowWidth,
			WindowHeight:   cfg.Browser.WindowHeight,
			StartupTimeout: config.Seconds(cfg.Browser.StartupTimeout, 20*time.Second),
		}
		if cfg.Acquire.UserAgent != "" {
			browserCfg.UserAgent = cfg.Acquire.UserAgent
		}
		strategies = append(strategies, acquire.NewBrowserStrategy(browserCfg, cfg.Acquire.Backends...))
	}
	strategies = append(strategies,
		acquire.NewHTTPSessionStrategy(),
		acquire.NewHTTPBasicStrategy(),
	)

	orch := acquire.NewOrchestrator(strategies,
		acquire.WithTimeout(acquire.MethodBrowser, config.Seconds(cfg.Acquire.BrowserTimeout, 60*time.Second)),
		acquire.WithTimeout(acquire.MethodHTTPSession, config.Seconds(cfg.Acquire.HTTPSessionTimeout, 20*time.Second)),
		acquire.WithTimeout(acquire.MethodHTTPBasic, config.Seconds(cfg.Acquire.HTTPBasicTimeout, 15*time.Second)),
	)

	req := acquire.Request{
		URL:         args[0],
		UserAgent:   cfg.Acquire.UserAgent,
		SettleDelay: config.Seconds(cfg.Acquire.SettleDelay, 2*time.Second),
	}
	outcome, attempts, err := orch.Run(context.Background(), req)
	if err != nil {
		for _, a := range attempts {
			fmt.Printf("  %s: %s (%s)\n", a.Method, a.Status, a.Reason)
		}
		return fmt.Errorf("acquisition failed: %w", err)
	}

	model, err := page.ParseString(outcome.HTML, outcome.FinalURL)
	if err != nil {
		return fmt.Errorf("failed to parse page: %w", err)
	}
	ranked := page.Classify(model)

	printAnalysis(outcome, model, ranked)
	return nil
}

func printAnalysis(outcome *acquire.Outcome, model *page.Model, ranked page.RankedElements) {
	fmt.Printf("Page: %s\n", model.Title)
	fmt.Printf("  URL:       %s\n", model.URL)
	fmt.Printf("  Method:    %s (%s)\n", outcome.Method, outcome.Elapsed.Round(time.Millisecond))
	fmt.Printf("  Score:     %.2f\n", model.AutomationScore)
	if model.AuthWall.Detected {
		fmt.Printf("  Auth wall: yes (confidence %.2f)\n", model.AuthWall.Confidence)
	}
	fmt.Printf("  Elements:  %d interactive (%d inputs, %d buttons, %d forms, %d links)\n",
		model.Counts.Interactive(), model.Counts.Inputs, model.Counts.Buttons, model.Counts.Forms, model.Counts.Links)
	fmt.Println()

	printTier("High priority", ranked.High)
	printTier("Medium priority", ranked.Medium)
	printTier("Low priority", ranked.Low)
}

func printTier(label string, elements []page.ElementCandidate) {
	if len(elements) == 0 {
		return
	}
	fmt.Printf("%s (%d):\n", label, len(elements))
	for _, el := range elements {
		line := fmt.Sprintf("  [%s] %s", el.Kind, el.SelectorHint)
		if el.Text != "" {
			line += fmt.Sprintf("  %q", el.Text)
		}
		fmt.Println(line)
	}
	fmt.Println()
}
