package codegen

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = `You are an expert browser automation engineer. Write a complete Python
script using Selenium that accomplishes the user's goal on the given page.

Hard requirements:
- Read RESULT_FILE, BACKEND, TARGET_URL and ARTIFACT_DIR from os.environ.
- Build the webdriver for the browser named in BACKEND, headless.
- Save screenshots into ARTIFACT_DIR.
- On exit, write JSON to RESULT_FILE with keys: success (bool), error
  (string), logs (list of strings), screenshots (list of paths). Write it in
  a finally/except path too, so a crash still produces a result file.
- Never touch files outside ARTIFACT_DIR and RESULT_FILE.

Reply with a single Python code block and nothing else.`

// OpenAIGenerator asks an OpenAI-compatible model for the script.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator talks to api.openai.com, or to baseURL when non-empty
// (OpenRouter, local proxies and other compatible endpoints).
func NewOpenAIGenerator(apiKey, baseURL, model string) *OpenAIGenerator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (g *OpenAIGenerator) Name() string { return "openai" }

func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(req)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	script := ExtractCode(resp.Choices[0].Message.Content)
	if strings.TrimSpace(script) == "" {
		return "", fmt.Errorf("model reply contained no code")
	}
	return script, nil
}

func buildUserPrompt(req Request) string {
	var b strings.Builder
	goal := req.Goal
	if goal == "" {
		goal = "Explore the page, interact with its primary elements, and capture a screenshot."
	}
	fmt.Fprintf(&b, "Goal: %s\n\n", goal)
	b.WriteString(pageSummary(req))
	fmt.Fprintf(&b, "\nTarget browser: %s (attempt %d)\n", req.Backend, req.Attempt)
	if req.PrevError != "" {
		fmt.Fprintf(&b, "\nThe previous attempt failed with: %s\nFix the script so this does not happen again.\n", req.PrevError)
	}
	return b.String()
}

// ExtractCode pulls the body out of a fenced code block, tolerating a
// language tag after the opening fence. Replies without fences pass through.
func ExtractCode(reply string) string {
	reply = strings.TrimSpace(reply)
	start := strings.Index(reply, "```")
	if start < 0 {
		return reply
	}
	rest := reply[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(rest[:nl])
		if len(firstLine) <= 12 && !strings.Contains(firstLine, " ") {
			rest = rest[nl+1:]
		}
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest) + "\n"
}
