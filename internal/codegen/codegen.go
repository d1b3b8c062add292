// Package codegen produces the automation scripts that run in the sandbox.
// Scripts follow the result-file protocol: they read RESULT_FILE, BACKEND,
// TARGET_URL and ARTIFACT_DIR from the environment and report by writing JSON.
package codegen

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hkuds/upilot/internal/page"
)

// Request carries everything a generator may use to build a script.
type Request struct {
	TargetURL string
	Backend   string
	Attempt   int

	// Goal is the user's description of what the script should do.
	Goal string

	// Page is the analyzed page model, nil when acquisition failed.
	Page *page.Model

	// Ranked holds the prioritized elements for Page.
	Ranked page.RankedElements

	// PrevError is the previous attempt's failure reason, empty on the
	// first attempt. Generators use it to repair the script.
	PrevError string
}

// Generator turns a request into a runnable script body.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}

func splitLines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

// truncateText caps s at max bytes on a rune boundary so prompts never carry
// a split multibyte sequence.
func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// pageSummary renders the page model into a compact description for prompts
// and template headers.
func pageSummary(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\n", req.TargetURL)
	if req.Page == nil {
		b.WriteString("Page analysis unavailable.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Title: %s\n", req.Page.Title)
	c := req.Page.Counts
	fmt.Fprintf(&b, "Elements: %d inputs, %d buttons, %d links, %d forms\n",
		c.Inputs, c.Buttons, c.Links, c.Forms)
	if req.Page.AuthWall.Detected {
		b.WriteString("The page appears to be a login wall.\n")
	}

	writeTier := func(label string, candidates []page.ElementCandidate) {
		if len(candidates) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s priority elements:\n", label)
		for _, el := range candidates {
			fmt.Fprintf(&b, "- %s selector=%s text=%q\n", el.Kind, el.SelectorHint, truncateText(el.Text, 60))
		}
	}
	writeTier("High", req.Ranked.High)
	writeTier("Medium", req.Ranked.Medium)
	return b.String()
}
