// Package page builds a normalized, automation-oriented model of a web page
// from raw HTML and classifies its interactive elements by priority.
package page

// Extraction caps. Huge pages are truncated per category so analysis cost
// stays bounded.
const (
	MaxBodyTextChars = 3000
	MaxInputs        = 15
	MaxButtons       = 10
	MaxLinks         = 15
	MaxParagraphs    = 10
	MaxLists         = 5
	MaxListItems     = 10
)

// Tier is the automation priority of an element.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// Kind identifies what sort of element a candidate is.
type Kind string

const (
	KindInput   Kind = "input"
	KindButton  Kind = "button"
	KindLink    Kind = "link"
	KindHeading Kind = "heading"
	KindGeneric Kind = "generic"
)

// MaxContextElements caps how many non-interactive context elements
// (headings, text-bearing divs and spans) are retained.
const MaxContextElements = 10

// Heading is a document heading in source order.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// List is an ordered or unordered list with its first items.
type List struct {
	Ordered bool     `json:"ordered"`
	Items   []string `json:"items"`
}

// ElementCounts summarizes how many elements of each category the page has.
// Counts are taken before the per-category caps are applied.
type ElementCounts struct {
	Inputs     int `json:"inputs"`
	Buttons    int `json:"buttons"`
	Forms      int `json:"forms"`
	Selects    int `json:"selects"`
	Textareas  int `json:"textareas"`
	Links      int `json:"links"`
	Images     int `json:"images"`
	Tables     int `json:"tables"`
	Clickables int `json:"clickables"`
	Headings   int `json:"headings"`
	Paragraphs int `json:"paragraphs"`
}

// Interactive returns the number of elements relevant for automation.
func (c ElementCounts) Interactive() int {
	return c.Inputs + c.Buttons + c.Forms + c.Selects + c.Textareas + c.Links + c.Clickables
}

// ElementCandidate is one interactive element extracted from the page,
// carrying enough attribute context to target it in a generated script.
type ElementCandidate struct {
	Kind         Kind              `json:"kind"`
	SelectorHint string            `json:"selector_hint"`
	Text         string            `json:"text,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	Tier         Tier              `json:"tier"`
}

// AuthWall holds the login-wall heuristic attached to a page model.
type AuthWall struct {
	Detected   bool    `json:"detected"`
	Confidence float64 `json:"confidence"`
	Score      int     `json:"score"`
}

// Model is an immutable snapshot of one page, built entirely from a single
// acquisition strategy's raw content. Strategies never merge models.
type Model struct {
	Title      string             `json:"title"`
	URL        string             `json:"url"`
	BodyText   string             `json:"body_text"`
	Headings   []Heading          `json:"headings"`
	Paragraphs []string           `json:"paragraphs"`
	Lists      []List             `json:"lists"`
	Counts     ElementCounts      `json:"counts"`
	Inputs     []ElementCandidate `json:"inputs"`
	Clickables []ElementCandidate `json:"clickables"`

	// Context holds non-interactive elements kept for downstream planning
	// context only. They always rank low.
	Context  []ElementCandidate `json:"context,omitempty"`
	AuthWall AuthWall           `json:"auth_wall"`

	// AutomationScore estimates how automatable the page is, in [0, 1].
	AutomationScore float64 `json:"automation_score"`
}

// RankedElements groups a model's element candidates by priority tier.
type RankedElements struct {
	High   []ElementCandidate `json:"high"`
	Medium []ElementCandidate `json:"medium"`
	Low    []ElementCandidate `json:"low"`
}

// Total returns the number of ranked elements across all tiers.
func (r RankedElements) Total() int {
	return len(r.High) + len(r.Medium) + len(r.Low)
}
