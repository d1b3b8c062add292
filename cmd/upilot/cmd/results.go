package cmd

import (
	"fmt"

	"github.com/hkuds/upilot/internal/config"
	"github.com/hkuds/upilot/internal/tui"
	"github.com/hkuds/upilot/internal/workflow"
	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results [id]",
	Short: "List past workflow results or show one in detail",
	Long:  "Without arguments, list the persisted workflow results newest first. With an id, show that result's acquisition, analysis, and execution details.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runResults,
}

func runResults(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if len(args) == 1 {
		result, err := workflow.Load(cfg.ResultsDir(), args[0])
		if err != nil {
			return fmt.Errorf("failed to load result %s: %w", args[0], err)
		}
		tui.ShowResult(result)
		return nil
	}

	results, err := workflow.List(cfg.ResultsDir())
	if err != nil {
		return fmt.Errorf("failed to list results: %w", err)
	}
	tui.ShowResultList(results)
	return nil
}
