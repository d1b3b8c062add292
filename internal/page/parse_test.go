package page

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

const loginHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Example Login</title>
  <style>body { color: SECRETSTYLE; }</style>
  <script>var SECRETSCRIPT = "should never leak";</script>
</head>
<body>
  <!-- hidden comment -->
  <h1>Sign in to your account</h1>
  <p>Please enter your credentials below to continue.</p>
  <form action="/login" method="post">
    <input type="text" name="username" id="username" placeholder="Username">
    <input type="password" name="password" id="password">
    <button type="submit" id="submit">Log in</button>
  </form>
  <a href="/about">About us</a>
</body>
</html>`

func TestParseFiltersNonContent(t *testing.T) {
	m, err := ParseString(loginHTML, "https://example.test/login")
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}

	if strings.Contains(m.BodyText, "SECRETSCRIPT") {
		t.Error("BodyText contains script content")
	}
	if strings.Contains(m.BodyText, "SECRETSTYLE") {
		t.Error("BodyText contains style content")
	}
	if strings.Contains(m.BodyText, "hidden comment") {
		t.Error("BodyText contains comment content")
	}
	if !strings.Contains(m.BodyText, "enter your credentials") {
		t.Errorf("BodyText lost real content: %q", m.BodyText)
	}
}

func TestParseBasicStructure(t *testing.T) {
	m, err := ParseString(loginHTML, "https://example.test/login")
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}

	if m.Title != "Example Login" {
		t.Errorf("Title = %q", m.Title)
	}
	if m.URL != "https://example.test/login" {
		t.Errorf("URL = %q", m.URL)
	}
	if len(m.Headings) != 1 || m.Headings[0].Level != 1 {
		t.Errorf("Headings = %+v", m.Headings)
	}
	if len(m.Paragraphs) != 1 {
		t.Errorf("Paragraphs = %+v", m.Paragraphs)
	}
	if m.Counts.Inputs != 2 || m.Counts.Buttons != 1 || m.Counts.Forms != 1 {
		t.Errorf("Counts = %+v", m.Counts)
	}
	if len(m.Inputs) != 2 {
		t.Fatalf("Inputs = %+v", m.Inputs)
	}
	if m.Inputs[0].SelectorHint != "#username" {
		t.Errorf("SelectorHint = %q, want id-based", m.Inputs[0].SelectorHint)
	}
}

func TestParseAuthWall(t *testing.T) {
	m, err := ParseString(loginHTML, "https://example.test/login")
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}
	if !m.AuthWall.Detected {
		t.Errorf("AuthWall not detected on a login page: %+v", m.AuthWall)
	}
}

func TestParseCapsLargePage(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&sb, `<input type="text" name="field%d">`, i)
	}
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&sb, `<a href="/page%d">Page number %d</a>`, i, i)
	}
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&sb, `<p>Paragraph content item number %d with some length.</p>`, i)
	}
	sb.WriteString("</body></html>")

	m, err := ParseString(sb.String(), "https://example.test/huge")
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}

	if len(m.Inputs) != MaxInputs {
		t.Errorf("Inputs retained = %d, want %d", len(m.Inputs), MaxInputs)
	}
	if m.Counts.Inputs != 40 {
		t.Errorf("Counts.Inputs = %d, want uncapped 40", m.Counts.Inputs)
	}
	links := 0
	for _, c := range m.Clickables {
		if c.Kind == KindLink {
			links++
		}
	}
	if links != MaxLinks {
		t.Errorf("links retained = %d, want %d", links, MaxLinks)
	}
	if len(m.Paragraphs) != MaxParagraphs {
		t.Errorf("Paragraphs retained = %d, want %d", len(m.Paragraphs), MaxParagraphs)
	}
}

func TestParseBodyTextCap(t *testing.T) {
	long := strings.Repeat("lorem ipsum dolor sit amet ", 500)
	m, err := ParseString("<html><body><p>"+long+"</p></body></html>", "https://example.test")
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}
	if len(m.BodyText) > MaxBodyTextChars {
		t.Errorf("BodyText length = %d, want <= %d", len(m.BodyText), MaxBodyTextChars)
	}
}

func TestParseStaticDivPage(t *testing.T) {
	html := `<html><body>
		<div>First block of text</div>
		<div>Second block of text</div>
		<div>Third block of text</div>
	</body></html>`

	m, err := ParseString(html, "https://example.test/login")
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}

	if m.AutomationScore > 0.3 {
		t.Errorf("AutomationScore = %v, want <= 0.3 for a page with no interactive elements", m.AutomationScore)
	}
	if len(m.Context) != 3 {
		t.Fatalf("Context elements = %d, want 3", len(m.Context))
	}
	for _, c := range m.Context {
		if c.Tier != TierLow {
			t.Errorf("context element %+v tier = %q, want low", c, c.Tier)
		}
	}
}

func TestSelectorHintPreference(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"id wins", `<input id="user" name="u" class="a b">`, "#user"},
		{"name second", `<input name="u" class="a b">`, "[name='u']"},
		{"short class list", `<input class="a b c">`, ".a.b.c"},
		{"long class list falls through", `<input class="a b c d" placeholder="Email">`, "input[placeholder='Email']"},
		{"type fallback", `<input type="checkbox" class="a b c d">`, "input[type='checkbox']"},
		{"bare tag", `<button></button>`, "button"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseString("<html><body>"+tt.html+"</body></html>", "https://example.test")
			if err != nil {
				t.Fatalf("ParseString failed: %v", err)
			}
			var got string
			if len(m.Inputs) > 0 {
				got = m.Inputs[0].SelectorHint
			} else if len(m.Clickables) > 0 {
				got = m.Clickables[0].SelectorHint
			} else {
				t.Fatal("no candidates extracted")
			}
			if got != tt.want {
				t.Errorf("SelectorHint = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAutomationScoreSaturates(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&sb, `<input type="text" name="f%d">`, i)
	}
	sb.WriteString("</body></html>")

	m, err := ParseString(sb.String(), "https://example.test")
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}
	if m.AutomationScore != 1.0 {
		t.Errorf("AutomationScore = %v, want saturated 1.0", m.AutomationScore)
	}
}

func TestAutomationScoreIgnoresLowTierElements(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&sb, `<input type="checkbox" name="opt%d">`, i)
	}
	sb.WriteString("</body></html>")

	m, err := ParseString(sb.String(), "https://example.test")
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}

	ranked := Classify(m)
	if len(ranked.High)+len(ranked.Medium) != 0 {
		t.Fatalf("checkboxes should all rank low, got %d high, %d medium", len(ranked.High), len(ranked.Medium))
	}
	if m.AutomationScore != 0 {
		t.Errorf("AutomationScore = %v, want 0 for a page with only low-tier elements", m.AutomationScore)
	}
}

func TestAutomationScoreCountsHighAndMedium(t *testing.T) {
	html := `<html><body>
		<input type="email" name="email">
		<input type="text" name="query">
		<input type="hidden" name="csrf">
		<input type="checkbox" name="remember">
		<button type="submit">Go</button>
	</body></html>`

	m, err := ParseString(html, "https://example.test")
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}
	// email (high) + text (medium) + submit button (high) = 3; the hidden
	// input and checkbox rank low and must not count.
	if m.AutomationScore != 0.3 {
		t.Errorf("AutomationScore = %v, want 0.3", m.AutomationScore)
	}
}

func TestTruncationKeepsValidUTF8(t *testing.T) {
	// 61 three-byte runes put the body-text cap mid-rune for the
	// two-byte runes that follow; the context cap of 100 bytes also
	// lands inside a three-byte rune.
	long := strings.Repeat("é", MaxBodyTextChars)
	html := "<html><body><h2>" + strings.Repeat("日", 61) + "</h2><p>" + long + "</p></body></html>"

	m, err := ParseString(html, "https://example.test")
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}

	if len(m.BodyText) > MaxBodyTextChars {
		t.Errorf("BodyText length = %d, want <= %d", len(m.BodyText), MaxBodyTextChars)
	}
	if !utf8.ValidString(m.BodyText) {
		t.Error("BodyText contains a split multibyte sequence")
	}
	for _, c := range m.Context {
		if !utf8.ValidString(c.Text) {
			t.Errorf("context text %q is not valid UTF-8", c.Text)
		}
	}
}

func TestTruncateRuneBoundary(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"ascii untouched", "hello", 10, "hello"},
		{"ascii cut", "hello", 3, "hel"},
		{"multibyte boundary", "aé", 2, "a"},
		{"exact fit", "aé", 3, "aé"},
		{"three byte rune", "a日b", 3, "a"},
		{"empty", "", 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}
