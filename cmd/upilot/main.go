package main

import (
	"os"

	"github.com/hkuds/upilot/cmd/upilot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
