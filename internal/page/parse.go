package page

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// nonContentSelector matches nodes that pollute text extraction. They are
// removed before any text or element analysis happens; script and style
// bodies routinely leak into body text otherwise.
const nonContentSelector = "script, style, noscript, iframe, embed, object"

// Parse builds a Model from raw HTML. The same parser serves every
// acquisition strategy: the browser strategy feeds it a rendered DOM
// snapshot, the HTTP strategies feed it the static response body. Static
// HTML cannot contain script-injected elements; that is a documented
// limitation of the HTTP strategies, not of the parser.
func Parse(r io.Reader, url string) (*Model, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc.Find(nonContentSelector).Remove()
	for _, n := range doc.Nodes {
		removeComments(n)
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}

	m := &Model{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		URL:   url,
	}

	m.BodyText = truncate(collapseWhitespace(body.Text()), MaxBodyTextChars)

	extractStructure(body, m)
	countElements(body, &m.Counts)
	extractInputs(body, m)
	extractClickables(body, m)
	extractContext(body, m)

	m.AuthWall = detectAuthWall(body, m)
	m.AutomationScore = automationScore(m)

	return m, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(raw, url string) (*Model, error) {
	return Parse(strings.NewReader(raw), url)
}

// removeComments strips comment nodes from the tree. goquery's text
// extraction skips them, but downstream consumers also see raw fragments.
func removeComments(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			removeComments(c)
		}
		c = next
	}
}

// extractStructure pulls headings, paragraphs and lists in source order,
// bounded by the extraction caps.
func extractStructure(body *goquery.Selection, m *Model) {
	body.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		level := 1
		if name := goquery.NodeName(s); len(name) == 2 {
			level = int(name[1] - '0')
		}
		m.Headings = append(m.Headings, Heading{Level: level, Text: text})
	})

	body.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text != "" && len(text) > 10 {
			m.Paragraphs = append(m.Paragraphs, text)
		}
		return len(m.Paragraphs) < MaxParagraphs
	})

	body.Find("ul, ol").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var items []string
		s.Find("li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
			if text := strings.TrimSpace(li.Text()); text != "" {
				items = append(items, text)
			}
			return len(items) < MaxListItems
		})
		if len(items) > 0 {
			m.Lists = append(m.Lists, List{
				Ordered: goquery.NodeName(s) == "ol",
				Items:   items,
			})
		}
		return len(m.Lists) < MaxLists
	})
}

func countElements(body *goquery.Selection, c *ElementCounts) {
	c.Inputs = body.Find("input").Length()
	c.Buttons = body.Find("button, input[type=submit], input[type=button]").Length()
	c.Forms = body.Find("form").Length()
	c.Selects = body.Find("select").Length()
	c.Textareas = body.Find("textarea").Length()
	c.Links = body.Find("a[href]").Length()
	c.Images = body.Find("img").Length()
	c.Tables = body.Find("table").Length()
	c.Clickables = body.Find("[onclick], [role=button]").Length()
	c.Headings = body.Find("h1, h2, h3, h4, h5, h6").Length()
	c.Paragraphs = body.Find("p").Length()
}

func extractInputs(body *goquery.Selection, m *Model) {
	body.Find("input").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		attrs := elementAttributes(s, "type", "name", "id", "placeholder", "value", "required")
		if attrs["type"] == "" {
			attrs["type"] = "text"
		}
		cand := ElementCandidate{
			Kind:         KindInput,
			SelectorHint: selectorHint(s),
			Attributes:   attrs,
		}
		cand.Tier = inputTier(cand)
		m.Inputs = append(m.Inputs, cand)
		return len(m.Inputs) < MaxInputs
	})
}

func extractClickables(body *goquery.Selection, m *Model) {
	buttons := 0
	body.Find("button, input[type=submit], input[type=button]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		attrs := elementAttributes(s, "type", "id", "class", "value")
		cand := ElementCandidate{
			Kind:         KindButton,
			SelectorHint: selectorHint(s),
			Text:         strings.TrimSpace(s.Text()),
			Attributes:   attrs,
		}
		if cand.Text == "" {
			cand.Text = attrs["value"]
		}
		cand.Tier = buttonTier(cand)
		m.Clickables = append(m.Clickables, cand)
		buttons++
		return buttons < MaxButtons
	})

	links := 0
	body.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		href, _ := s.Attr("href")
		if text == "" || href == "" {
			return true
		}
		cand := ElementCandidate{
			Kind:         KindLink,
			SelectorHint: selectorHint(s),
			Text:         text,
			Attributes:   elementAttributes(s, "href", "id", "class", "target", "onclick", "role"),
		}
		cand.Tier = linkTier(cand)
		m.Clickables = append(m.Clickables, cand)
		links++
		return links < MaxLinks
	})
}

// extractContext keeps a handful of non-interactive elements for planning
// context: the first headings, then text-bearing divs and spans.
func extractContext(body *goquery.Selection, m *Model) {
	body.Find("h1, h2, h3").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			text = truncate(text, 100)
			m.Context = append(m.Context, ElementCandidate{
				Kind:         KindHeading,
				SelectorHint: selectorHint(s),
				Text:         text,
				Tier:         TierLow,
			})
		}
		return len(m.Context) < MaxContextElements
	})

	body.Find("div, span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !hasOwnText(s) {
			return true
		}
		text := truncate(strings.TrimSpace(s.Text()), 100)
		m.Context = append(m.Context, ElementCandidate{
			Kind:         KindGeneric,
			SelectorHint: selectorHint(s),
			Text:         text,
			Tier:         TierLow,
		})
		return len(m.Context) < MaxContextElements
	})
}

// hasOwnText reports whether the selection has a non-empty direct text
// child, as opposed to text inherited from nested elements.
func hasOwnText(s *goquery.Selection) bool {
	for _, n := range s.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode && strings.TrimSpace(c.Data) != "" {
				return true
			}
		}
	}
	return false
}

// detectAuthWall scores login indicators: password fields weigh heaviest,
// login/signin text adds one.
func detectAuthWall(body *goquery.Selection, m *Model) AuthWall {
	passwords := body.Find("input[type=password]").Length()
	lower := strings.ToLower(m.BodyText)
	loginText := 0
	if strings.Contains(lower, "login") || strings.Contains(lower, "signin") || strings.Contains(lower, "sign in") {
		loginText = 1
	}

	score := passwords*3 + loginText
	confidence := float64(score) / 6.0
	if confidence > 1.0 {
		confidence = 1.0
	}
	return AuthWall{
		Detected:   score > 2,
		Confidence: confidence,
		Score:      score,
	}
}

// automationScore rates how automatable the page looks from its high and
// medium tier candidates. Low-tier elements (hidden inputs, checkboxes,
// bare navigation) carry no automation value and do not count.
func automationScore(m *Model) float64 {
	n := 0
	for _, cand := range m.Inputs {
		if cand.Tier == TierHigh || cand.Tier == TierMedium {
			n++
		}
	}
	for _, cand := range m.Clickables {
		if cand.Tier == TierHigh || cand.Tier == TierMedium {
			n++
		}
	}
	score := float64(n) / 10.0
	if score > 1.0 {
		return 1.0
	}
	return score
}

func elementAttributes(s *goquery.Selection, names ...string) map[string]string {
	attrs := make(map[string]string, len(names))
	for _, name := range names {
		if v, ok := s.Attr(name); ok {
			attrs[name] = v
		} else {
			attrs[name] = ""
		}
	}
	return attrs
}

// selectorHint generates the most stable CSS selector available for an
// element: id, then name, then a short class list, then tag plus a
// distinguishing attribute.
func selectorHint(s *goquery.Selection) string {
	if id, ok := s.Attr("id"); ok && id != "" {
		return "#" + id
	}
	if name, ok := s.Attr("name"); ok && name != "" {
		return fmt.Sprintf("[name='%s']", name)
	}
	if class, ok := s.Attr("class"); ok && class != "" {
		classes := strings.Fields(class)
		if len(classes) <= 3 {
			return "." + strings.Join(classes, ".")
		}
	}
	tag := goquery.NodeName(s)
	if placeholder, ok := s.Attr("placeholder"); ok && placeholder != "" {
		return fmt.Sprintf("%s[placeholder='%s']", tag, placeholder)
	}
	if typ, ok := s.Attr("type"); ok && typ != "" {
		return fmt.Sprintf("%s[type='%s']", tag, typ)
	}
	return tag
}

// truncate caps s at max bytes without splitting a multibyte rune, so the
// result stays valid UTF-8 for JSON encoding.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// collapseWhitespace reduces runs of whitespace to single spaces and
// drops blank lines.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	var result []string
	for _, line := range lines {
		trimmed := strings.Join(strings.Fields(line), " ")
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return strings.Join(result, "\n")
}
