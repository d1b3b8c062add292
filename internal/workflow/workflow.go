// Package workflow glues acquisition, page analysis, script generation and
// sandboxed execution into one run with a shared deadline.
package workflow

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hkuds/upilot/internal/acquire"
	"github.com/hkuds/upilot/internal/browser"
	"github.com/hkuds/upilot/internal/codegen"
	"github.com/hkuds/upilot/internal/config"
	"github.com/hkuds/upilot/internal/executor"
	"github.com/hkuds/upilot/internal/failure"
	"github.com/hkuds/upilot/internal/page"
	"github.com/hkuds/upilot/internal/sandbox"
)

// Request describes one end-to-end automation run.
type Request struct {
	URL  string
	Goal string
}

// AnalysisReport is the persisted digest of the page analysis phase.
type AnalysisReport struct {
	Title           string             `json:"title"`
	FinalURL        string             `json:"final_url"`
	Method          acquire.Method     `json:"method"`
	AutomationScore float64            `json:"automation_score"`
	AuthWall        bool               `json:"auth_wall"`
	Counts          page.ElementCounts `json:"counts"`
	HighPriority    int                `json:"high_priority"`
	MediumPriority  int                `json:"medium_priority"`
	LowPriority     int                `json:"low_priority"`
}

// Result is the persisted outcome of a workflow.
type Result struct {
	ID        string        `json:"id"`
	URL       string        `json:"url"`
	Goal      string        `json:"goal,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`

	Acquisition []acquire.Attempt `json:"acquisition"`
	Analysis    *AnalysisReport   `json:"analysis,omitempty"`
	Execution   *executor.Summary `json:"execution,omitempty"`
}

// Coordinator owns the component wiring for workflow runs.
type Coordinator struct {
	cfg        *config.Config
	strategies []acquire.Strategy
	runner     sandbox.Runner
	generator  codegen.Generator
	logf       func(format string, args ...any)

	closeOnce sync.Once
}

// New builds a Coordinator from configuration. Docker is probed once here;
// the choice of runner holds for the Coordinator's lifetime.
func New(cfg *config.Config) *Coordinator {
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

	runnerCfg := sandbox.RunnerConfig{
		Image:          cfg.Execute.Image,
		Interpreter:    cfg.Execute.Interpreter,
		MemoryMB:       cfg.Execute.MemoryMB,
		NetworkEnabled: cfg.Execute.Network,
		Timeout:        config.Seconds(cfg.Execute.RunTimeout, sandbox.DefaultTimeout),
	}
	var runner sandbox.Runner
	if cfg.Execute.ForceLocal {
		runner = sandbox.NewLocalRunner(runnerCfg)
	} else {
		runner = sandbox.NewRunner(runnerCfg)
	}

	return &Coordinator{
		cfg: cfg,
		strategies: []acquire.Strategy{
			acquire.NewBrowserStrategy(browserCfg, cfg.Acquire.Backends...),
			acquire.NewHTTPSessionStrategy(),
			acquire.NewHTTPBasicStrategy(),
		},
		runner:    runner,
		generator: newGenerator(cfg),
		logf:      log.Printf,
	}
}

func newGenerator(cfg *config.Config) codegen.Generator {
	tmpl := &codegen.TemplateGenerator{
		Username: cfg.Codegen.Username,
		Password: cfg.Codegen.Password,
	}
	if cfg.Codegen.Generator == "template" {
		return tmpl
	}

	name, apiKey, apiBase := cfg.GetActiveProvider()
	if name == "" {
		if cfg.Codegen.Generator == "openai" {
			log.Printf("workflow: no provider configured, falling back to template scripts")
		}
		return tmpl
	}
	return codegen.NewOpenAIGenerator(apiKey, apiBase, cfg.Codegen.Model)
}

// SetLogf redirects progress logging.
func (c *Coordinator) SetLogf(logf func(format string, args ...any)) {
	c.logf = logf
}

// Close releases the runner. Safe to call multiple times.
func (c *Coordinator) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.runner.Close()
	})
	return err
}

// Run executes the whole workflow and persists the result document. The
// returned Result is valid even when err is non-nil.
func (c *Coordinator) Run(ctx context.Context, req Request) (*Result, error) {
	result := &Result{
		ID:        uuid.NewString(),
		URL:       req.URL,
		Goal:      req.Goal,
		StartedAt: time.Now(),
	}

	total := config.Seconds(c.cfg.Workflow.TotalTimeout, 10*time.Minute)
	ctx, cancel := context.WithTimeout(ctx, total)
	defer cancel()

	c.logf("workflow %s: starting for %s (budget %s)", result.ID, req.URL, total)

	err := c.run(ctx, req, result, total)
	result.Duration = time.Since(result.StartedAt)
	if err != nil {
		result.Error = failure.Concise(err.Error())
	} else {
		result.Success = true
	}

	if saveErr := c.persist(result); saveErr != nil {
		c.logf("workflow %s: persist failed: %v", result.ID, saveErr)
	}
	c.logf("workflow %s: finished success=%v in %s", result.ID, result.Success, result.Duration.Round(time.Millisecond))
	return result, err
}

func (c *Coordinator) run(ctx context.Context, req Request, result *Result, total time.Duration) error {
	// Phase 1: acquisition and analysis on a slice of the budget.
	share := c.cfg.Workflow.AnalysisShare
	if share <= 0 || share >= 1 {
		share = 0.3
	}
	analysisCtx, cancel := context.WithTimeout(ctx, time.Duration(float64(total)*share))
	outcome, attempts, err := c.acquirePage(analysisCtx, req.URL)
	cancel()
	result.Acquisition = attempts
	if err != nil {
		return err
	}

	model, err := page.ParseString(outcome.HTML, outcome.FinalURL)
	if err != nil {
		return failure.New(failure.StrategyFailure, fmt.Errorf("parse page: %w", err))
	}
	ranked := page.Classify(model)
	result.Analysis = &AnalysisReport{
		Title:           model.Title,
		FinalURL:        outcome.FinalURL,
		Method:          outcome.Method,
		AutomationScore: model.AutomationScore,
		AuthWall:        model.AuthWall.Detected,
		Counts:          model.Counts,
		HighPriority:    len(ranked.High),
		MediumPriority:  len(ranked.Medium),
		LowPriority:     len(ranked.Low),
	}
	c.logf("workflow %s: analyzed %q via %s (score %.2f, %d high priority elements)",
		result.ID, model.Title, outcome.Method, model.AutomationScore, len(ranked.High))

	// Phase 2: generation and execution on the remaining budget.
	ctrl := executor.New(c.runner, executor.Options{
		Backends:    c.cfg.Execute.Backends,
		MaxAttempts: c.cfg.Execute.MaxAttempts,
		RunTimeout:  config.Seconds(c.cfg.Execute.RunTimeout, sandbox.DefaultTimeout),
		WorkDir:     filepath.Join(c.cfg.RunsDir(), result.ID),
	})
	ctrl.SetLogf(c.logf)

	source := func(ctx context.Context, sreq executor.ScriptRequest) (string, error) {
		return c.generator.Generate(ctx, codegen.Request{
			TargetURL: sreq.TargetURL,
			Backend:   sreq.Backend,
			Attempt:   sreq.Attempt,
			Goal:      req.Goal,
			Page:      model,
			Ranked:    ranked,
			PrevError: sreq.PrevError,
		})
	}

	summary, err := ctrl.Execute(ctx, req.URL, source)
	result.Execution = summary
	if err != nil {
		return err
	}

	if scaffErr := c.scaffoldProject(result, summary); scaffErr != nil {
		c.logf("workflow %s: project scaffold failed: %v", result.ID, scaffErr)
	}
	return nil
}

func (c *Coordinator) acquirePage(ctx context.Context, url string) (*acquire.Outcome, []acquire.Attempt, error) {
	o := acquire.NewOrchestrator(c.strategies,
		acquire.WithTimeout(acquire.MethodBrowser, config.Seconds(c.cfg.Acquire.BrowserTimeout, time.Minute)),
		acquire.WithTimeout(acquire.MethodHTTPSession, config.Seconds(c.cfg.Acquire.HTTPSessionTimeout, 20*time.Second)),
		acquire.WithTimeout(acquire.MethodHTTPBasic, config.Seconds(c.cfg.Acquire.HTTPBasicTimeout, 15*time.Second)),
		acquire.WithLogf(c.logf),
	)
	return o.Run(ctx, acquire.Request{
		URL:         url,
		UserAgent:   c.cfg.Acquire.UserAgent,
		SettleDelay: config.Seconds(c.cfg.Acquire.SettleDelay, 2*time.Second),
	})
}
