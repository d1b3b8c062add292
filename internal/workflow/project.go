package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/hkuds/upilot/internal/executor"
)

// scaffoldProject turns a successful run into a reusable project directory:
// the winning script, a requirements file and a README describing how the
// script was produced.
func (c *Coordinator) scaffoldProject(result *Result, summary *executor.Summary) error {
	if summary == nil || summary.Winner == nil {
		return nil
	}
	winner := summary.Winner

	dir := filepath.Join(c.cfg.ProjectsDir(), result.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create project dir: %w", err)
	}

	script, err := os.ReadFile(filepath.Join(winner.RunDir, "script.py"))
	if err != nil {
		return fmt.Errorf("read winning script: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "automation.py"), script, 0o644); err != nil {
		return err
	}

	requirements := "selenium>=4.15\n"
	if err := os.WriteFile(filepath.Join(dir, "requirements.txt"), []byte(requirements), 0o644); err != nil {
		return err
	}

	var readme = template.Must(template.New("readme").Parse(`# Automation project {{.ID}}

Target: {{.URL}}
{{if .Goal}}Goal: {{.Goal}}
{{end}}Generated: {{.StartedAt.Format "2006-01-02 15:04:05"}}
Verified with: {{.Backend}} (attempt {{.Number}})

## Running

    pip install -r requirements.txt
    RESULT_FILE=result.json TARGET_URL={{.URL}} BACKEND={{.Backend}} ARTIFACT_DIR=. python3 automation.py
`))

	f, err := os.Create(filepath.Join(dir, "README.md"))
	if err != nil {
		return err
	}
	defer f.Close()
	return readme.Execute(f, struct {
		*Result
		Backend string
		Number  int
	}{result, winner.Backend, winner.Number})
}
