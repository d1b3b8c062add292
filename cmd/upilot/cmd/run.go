package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hkuds/upilot/internal/config"
	"github.com/hkuds/upilot/internal/tui"
	"github.com/hkuds/upilot/internal/workflow"
	"github.com/spf13/cobra"
)

var goalFlag string

var runCmd = &cobra.Command{
	Use:   "run <url>",
	Short: "Run the full automation workflow against a URL",
	Long:  "Acquire the page, analyze its elements, generate an automation script, and execute it in the sandbox. The result document is persisted under the workspace.",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkflow,
}

func init() {
	runCmd.Flags().StringVarP(&goalFlag, "goal", "g", "", "Automation goal in plain language (guides script generation)")
}

func runWorkflow(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	coord := workflow.New(cfg)
	defer coord.Close()

	// Handle signals for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted, stopping workflow...")
		cancel()
	}()

	result, err := coord.Run(ctx, workflow.Request{URL: args[0], Goal: goalFlag})
	tui.ShowResult(result)
	if err != nil {
		return fmt.Errorf("workflow %s failed: %s", result.ID, result.Error)
	}
	return nil
}
