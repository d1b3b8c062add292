package cmd

import (
	"fmt"

	"github.com/hkuds/upilot/internal/tui"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Run interactive setup wizard",
	Long:  "Run the interactive setup wizard to configure upilot with your preferred script generation provider, execution browsers, and sandbox mode.",
	RunE:  runSetup,
}

func runSetup(cmd *cobra.Command, args []string) error {
	_, err := tui.RunSetup()
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	fmt.Println()
	fmt.Println("You can now:")
	fmt.Println("  - Run a workflow:    upilot run <url>")
	fmt.Println("  - Analyze a page:    upilot analyze <url>")
	fmt.Println("  - View full status:  upilot status")

	return nil
}
