package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration for upilot.
type Config struct {
	Workspace string          `json:"workspace"`
	Acquire   AcquireConfig   `json:"acquire"`
	Browser   BrowserConfig   `json:"browser"`
	Execute   ExecuteConfig   `json:"execute"`
	Workflow  WorkflowConfig  `json:"workflow"`
	Codegen   CodegenConfig   `json:"codegen"`
	Providers ProvidersConfig `json:"providers"`
}

// AcquireConfig tunes the page acquisition strategies. All timeouts are in
// seconds.
type AcquireConfig struct {
	// Backends lists browser backends in fallback order.
	Backends []string `json:"backends"`

	BrowserTimeout     int `json:"browserTimeout"`
	HTTPSessionTimeout int `json:"httpSessionTimeout"`
	HTTPBasicTimeout   int `json:"httpBasicTimeout"`

	// SettleDelay is the post-load wait in seconds before capturing.
	SettleDelay int `json:"settleDelay"`

	UserAgent string `json:"userAgent,omitempty"`
}

// BrowserConfig tunes the headless browser backends.
type BrowserConfig struct {
	Headless       bool   `json:"headless"`
	NoSandbox      bool   `json:"noSandbox"`
	ChromePath     string `json:"chromePath,omitempty"`
	WindowWidth    int    `json:"windowWidth"`
	WindowHeight   int    `json:"windowHeight"`
	StartupTimeout int    `json:"startupTimeout"` // seconds
}

// ExecuteConfig tunes the sandboxed script execution matrix.
type ExecuteConfig struct {
	// Backends lists the browsers the generated scripts drive, in order.
	Backends []string `json:"backends"`

	MaxAttempts int `json:"maxAttempts"`
	RunTimeout  int `json:"runTimeout"` // seconds per script run

	// Image is the container image for the Docker runner.
	Image       string `json:"image"`
	Interpreter string `json:"interpreter"`
	MemoryMB    int64  `json:"memoryMb"`
	Network     bool   `json:"network"`

	// ForceLocal skips Docker even when available.
	ForceLocal bool `json:"forceLocal"`
}

// WorkflowConfig tunes the end-to-end run.
type WorkflowConfig struct {
	// TotalTimeout caps a whole workflow, in seconds.
	TotalTimeout int `json:"totalTimeout"`

	// AnalysisShare is the fraction of the budget given to acquisition
	// and page analysis; the rest goes to execution.
	AnalysisShare float64 `json:"analysisShare"`
}

// CodegenConfig selects and tunes the script generator.
type CodegenConfig struct {
	// Generator is "auto", "openai" or "template". Auto uses the model
	// when a provider is configured and falls back to templates.
	Generator string `json:"generator"`
	Model     string `json:"model,omitempty"`

	// Credentials filled into login scripts.
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// ProvidersConfig holds OpenAI-compatible provider configurations.
type ProvidersConfig struct {
	OpenAI     ProviderConfig `json:"openai"`
	OpenRouter ProviderConfig `json:"openrouter"`
	Groq       ProviderConfig `json:"groq"`
	VLLM       ProviderConfig `json:"vllm"`
}

// ProviderConfig represents a single provider.
type ProviderConfig struct {
	APIKey  string `json:"apiKey"`
	APIBase string `json:"apiBase,omitempty"`
}

// DefaultConfig returns a new Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Workspace: "~/.upilot/workspace",
		Acquire: AcquireConfig{
			Backends:           []string{"chrome", "rod"},
			BrowserTimeout:     60,
			HTTPSessionTimeout: 20,
			HTTPBasicTimeout:   15,
			SettleDelay:        2,
		},
		Browser: BrowserConfig{
			Headless:       true,
			NoSandbox:      true,
			WindowWidth:    1920,
			WindowHeight:   1080,
			StartupTimeout: 20,
		},
		Execute: ExecuteConfig{
			Backends:    []string{"chrome", "edge"},
			MaxAttempts: 2,
			RunTimeout:  180,
			Image:       "python:3.11-slim",
			Interpreter: "python3",
			MemoryMB:    512,
			Network:     true,
		},
		Workflow: WorkflowConfig{
			TotalTimeout:  600,
			AnalysisShare: 0.3,
		},
		Codegen: CodegenConfig{
			Generator: "auto",
		},
		Providers: ProvidersConfig{
			OpenAI: ProviderConfig{
				APIBase: "https://api.openai.com/v1",
			},
			OpenRouter: ProviderConfig{
				APIBase: "https://openrouter.ai/api/v1",
			},
			Groq: ProviderConfig{
				APIBase: "https://api.groq.com/openai/v1",
			},
			VLLM: ProviderConfig{
				APIBase: "",
			},
		},
	}
}

// WorkspacePath returns the absolute path to the workspace directory,
// expanding ~ to the user's home directory.
func (c *Config) WorkspacePath() string {
	workspace := c.Workspace
	if workspace == "" {
		workspace = "~/.upilot/workspace"
	}
	return expandPath(workspace)
}

// ResultsDir is where workflow result documents are persisted.
func (c *Config) ResultsDir() string {
	return filepath.Join(c.WorkspacePath(), "workflow_results")
}

// RunsDir is the base directory for per-attempt run directories.
func (c *Config) RunsDir() string {
	return filepath.Join(c.WorkspacePath(), "runs")
}

// ProjectsDir holds scaffolded automation projects.
func (c *Config) ProjectsDir() string {
	return filepath.Join(c.WorkspacePath(), "automation_projects")
}

// GetActiveProvider returns the first configured provider's name, API key and
// API base URL. Providers are checked in order: OpenAI, OpenRouter, Groq,
// VLLM. Returns empty strings when nothing is configured.
func (c *Config) GetActiveProvider() (name string, apiKey string, apiBase string) {
	if c.Providers.OpenAI.APIKey != "" {
		return "openai", c.Providers.OpenAI.APIKey, c.Providers.OpenAI.APIBase
	}
	if c.Providers.OpenRouter.APIKey != "" {
		return "openrouter", c.Providers.OpenRouter.APIKey, c.Providers.OpenRouter.APIBase
	}
	if c.Providers.Groq.APIKey != "" {
		return "groq", c.Providers.Groq.APIKey, c.Providers.Groq.APIBase
	}
	// VLLM may run without an API key for local deployments.
	if c.Providers.VLLM.APIBase != "" {
		return "vllm", c.Providers.VLLM.APIKey, c.Providers.VLLM.APIBase
	}
	return "", "", ""
}

// Seconds converts a seconds tunable to a duration, substituting def when the
// value is zero or negative.
func Seconds(v int, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return time.Duration(v) * time.Second
}

// expandPath expands ~ to the user's home directory and resolves the path.
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if len(path) == 1 {
			return home
		}
		if path[1] == '/' || path[1] == filepath.Separator {
			path = filepath.Join(home, path[2:])
		} else {
			path = filepath.Join(home, path[1:])
		}
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}
