package page

import "strings"

// Keyword sets driving the deterministic classification rules. Matching is
// case-insensitive substring matching.
var (
	credentialInputTypes = []string{"email", "password", "tel", "url"}
	credentialKeywords   = []string{"username", "email", "password", "login", "signin"}
	submitKeywords       = []string{"submit", "login", "signin", "sign in", "send", "search"}
	registerKeywords     = []string{"login", "signin", "register", "signup"}
	navKeywords          = []string{"home", "about", "contact", "services", "products"}
	mediumInputTypes     = []string{"text", "search", "number", "date"}
)

// Classify groups a model's elements into priority tiers. It is a pure
// function of the model: classifying the same model twice yields identical
// results. Tiers are recomputed from element attributes, never read back
// from the candidates.
func Classify(m *Model) RankedElements {
	var ranked RankedElements

	for _, cand := range m.Inputs {
		c := cand
		c.Tier = inputTier(c)
		ranked.add(c)
	}
	for _, cand := range m.Clickables {
		c := cand
		switch c.Kind {
		case KindButton:
			c.Tier = buttonTier(c)
		case KindLink:
			c.Tier = linkTier(c)
		default:
			c.Tier = TierLow
		}
		ranked.add(c)
	}
	for _, cand := range m.Context {
		c := cand
		c.Tier = TierLow
		ranked.add(c)
	}

	return ranked
}

func (r *RankedElements) add(c ElementCandidate) {
	switch c.Tier {
	case TierHigh:
		r.High = append(r.High, c)
	case TierMedium:
		r.Medium = append(r.Medium, c)
	default:
		r.Low = append(r.Low, c)
	}
}

// inputTier ranks an input field. Credential-shaped inputs rank high,
// free-text inputs rank medium, the rest low.
func inputTier(c ElementCandidate) Tier {
	typ := strings.ToLower(c.Attributes["type"])
	name := strings.ToLower(c.Attributes["name"])
	id := strings.ToLower(c.Attributes["id"])
	placeholder := strings.ToLower(c.Attributes["placeholder"])

	for _, t := range credentialInputTypes {
		if typ == t {
			return TierHigh
		}
	}
	for _, kw := range credentialKeywords {
		if strings.Contains(name, kw) || strings.Contains(id, kw) || strings.Contains(placeholder, kw) {
			return TierHigh
		}
	}
	for _, t := range mediumInputTypes {
		if typ == t {
			return TierMedium
		}
	}
	return TierLow
}

// buttonTier ranks a button. Submit buttons and submit-keyword text rank
// high; everything else is still clickable, so medium.
func buttonTier(c ElementCandidate) Tier {
	if strings.ToLower(c.Attributes["type"]) == "submit" {
		return TierHigh
	}
	text := strings.ToLower(c.Text)
	value := strings.ToLower(c.Attributes["value"])
	for _, kw := range submitKeywords {
		if strings.Contains(text, kw) || strings.Contains(value, kw) {
			return TierHigh
		}
	}
	return TierMedium
}

// linkTier ranks a link by its text and target.
func linkTier(c ElementCandidate) Tier {
	text := strings.ToLower(c.Text)
	href := strings.ToLower(c.Attributes["href"])

	for _, kw := range registerKeywords {
		if strings.Contains(text, kw) || strings.Contains(href, kw) {
			return TierHigh
		}
	}
	for _, kw := range navKeywords {
		if strings.Contains(text, kw) {
			return TierMedium
		}
	}
	if c.Attributes["onclick"] != "" || strings.ToLower(c.Attributes["role"]) == "button" {
		return TierMedium
	}
	return TierLow
}
