package page

import (
	"reflect"
	"testing"
)

func TestClassifyLoginPage(t *testing.T) {
	m, err := ParseString(loginHTML, "https://example.test/login")
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}

	ranked := Classify(m)

	var hasPassword, hasSubmit bool
	for _, c := range ranked.High {
		if c.Kind == KindInput && c.Attributes["type"] == "password" {
			hasPassword = true
		}
		if c.Kind == KindButton && c.Attributes["type"] == "submit" {
			hasSubmit = true
		}
	}
	if !hasPassword {
		t.Error("password input not ranked high")
	}
	if !hasSubmit {
		t.Error("submit button not ranked high")
	}
}

func TestClassifyIdempotent(t *testing.T) {
	m, err := ParseString(loginHTML, "https://example.test/login")
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}

	first := Classify(m)
	second := Classify(m)

	if !reflect.DeepEqual(first, second) {
		t.Error("Classify is not idempotent for the same model")
	}
}

func TestClassifyDivOnlyPage(t *testing.T) {
	html := `<html><body>
		<div>Alpha content</div>
		<div>Beta content</div>
		<div>Gamma content</div>
	</body></html>`
	m, err := ParseString(html, "https://example.test/login")
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}

	ranked := Classify(m)
	if len(ranked.High) != 0 || len(ranked.Medium) != 0 {
		t.Errorf("high=%d medium=%d, want all low", len(ranked.High), len(ranked.Medium))
	}
	if len(ranked.Low) != 3 {
		t.Errorf("low = %d, want 3", len(ranked.Low))
	}
}

func TestInputTier(t *testing.T) {
	tests := []struct {
		name  string
		attrs map[string]string
		want  Tier
	}{
		{"email type", map[string]string{"type": "email"}, TierHigh},
		{"password type", map[string]string{"type": "password"}, TierHigh},
		{"tel type", map[string]string{"type": "tel"}, TierHigh},
		{"url type", map[string]string{"type": "url"}, TierHigh},
		{"username name", map[string]string{"type": "text", "name": "username"}, TierHigh},
		{"login in id", map[string]string{"type": "text", "id": "login-field"}, TierHigh},
		{"email placeholder", map[string]string{"type": "text", "placeholder": "Your Email"}, TierHigh},
		{"plain text", map[string]string{"type": "text", "name": "comment"}, TierMedium},
		{"search", map[string]string{"type": "search"}, TierMedium},
		{"number", map[string]string{"type": "number"}, TierMedium},
		{"date", map[string]string{"type": "date"}, TierMedium},
		{"checkbox", map[string]string{"type": "checkbox"}, TierLow},
		{"hidden", map[string]string{"type": "hidden"}, TierLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ElementCandidate{Kind: KindInput, Attributes: withDefaults(tt.attrs)}
			if got := inputTier(c); got != tt.want {
				t.Errorf("inputTier(%v) = %q, want %q", tt.attrs, got, tt.want)
			}
		})
	}
}

func TestButtonTier(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		attrs map[string]string
		want  Tier
	}{
		{"submit type", "", map[string]string{"type": "submit"}, TierHigh},
		{"login text", "Log In", map[string]string{"type": "button"}, TierHigh},
		{"sign in text", "Sign in", map[string]string{}, TierHigh},
		{"search text", "Search", map[string]string{}, TierHigh},
		{"send value", "", map[string]string{"type": "button", "value": "Send"}, TierHigh},
		{"plain button", "Cancel", map[string]string{"type": "button"}, TierMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ElementCandidate{Kind: KindButton, Text: tt.text, Attributes: withDefaults(tt.attrs)}
			if got := buttonTier(c); got != tt.want {
				t.Errorf("buttonTier = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLinkTier(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		attrs map[string]string
		want  Tier
	}{
		{"signup href", "Join now", map[string]string{"href": "/signup"}, TierHigh},
		{"login text", "Login here", map[string]string{"href": "/x"}, TierHigh},
		{"nav home", "Home", map[string]string{"href": "/"}, TierMedium},
		{"nav contact", "Contact", map[string]string{"href": "/c"}, TierMedium},
		{"onclick", "Widget", map[string]string{"href": "#", "onclick": "doIt()"}, TierMedium},
		{"role button", "Widget", map[string]string{"href": "#", "role": "button"}, TierMedium},
		{"plain link", "Terms of service", map[string]string{"href": "/tos"}, TierLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ElementCandidate{Kind: KindLink, Text: tt.text, Attributes: withDefaults(tt.attrs)}
			if got := linkTier(c); got != tt.want {
				t.Errorf("linkTier = %q, want %q", got, tt.want)
			}
		})
	}
}

// withDefaults fills the attribute keys the tier functions read so tests
// can specify only the interesting ones.
func withDefaults(attrs map[string]string) map[string]string {
	out := map[string]string{
		"type": "", "name": "", "id": "", "placeholder": "",
		"value": "", "href": "", "onclick": "", "role": "",
	}
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
