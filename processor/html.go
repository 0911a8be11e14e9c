package processor

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ZaguanLabs/dobhasi"
	"golang.org/x/net/html"
)

// HTMLProcessor extracts and applies translations to HTML fragments.
type HTMLProcessor struct {
	ignoredTags map[string]bool
}

// NewHTMLProcessor creates a new HTML processor with default ignored tags.
func NewHTMLProcessor() *HTMLProcessor {
	return &HTMLProcessor{
		ignoredTags: dobhasi.IgnoredTags,
	}
}

// NewHTMLProcessorWithIgnoredTags creates a new HTML processor with custom ignored tags.
func NewHTMLProcessorWithIgnoredTags(tags []string) *HTMLProcessor {
	ignored := make(map[string]bool)
	for _, tag := range tags {
		ignored[strings.ToLower(tag)] = true
	}
	return &HTMLProcessor{
		ignoredTags: ignored,
	}
}

// Fragment is a parsed HTML fragment ready for Apply.
type Fragment struct {
	doc *goquery.Document
}

// Extract parses an HTML fragment and returns its translatable text nodes,
// one per distinct text.
func (p *HTMLProcessor) Extract(content string) (*Fragment, []TextNode, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, nil, &dobhasi.ProcessorError{
			Message:     "failed to parse HTML",
			Cause:       err,
			ContentType: p.ContentType(),
		}
	}

	var nodes []TextNode
	seen := make(map[string]bool)

	p.walk(doc, func(n *html.Node, trimmed string) {
		hash := dobhasi.HashText(trimmed)
		if seen[hash] {
			return
		}
		seen[hash] = true

		node := TextNode{Text: trimmed, Hash: hash}
		if n.Parent != nil {
			node.ParentTag = n.Parent.Data
		}
		nodes = append(nodes, node)
	})

	return &Fragment{doc: doc}, nodes, nil
}

// Apply writes translations (keyed by TextNode.Hash) into the fragment and
// returns the fragment's HTML. Leading and trailing whitespace of every text
// node is preserved.
func (p *HTMLProcessor) Apply(f *Fragment, translations map[string]string) (string, error) {
	if f == nil || f.doc == nil {
		return "", &dobhasi.ProcessorError{
			Message:     "nothing to apply to",
			ContentType: p.ContentType(),
		}
	}

	p.walk(f.doc, func(n *html.Node, trimmed string) {
		if translated, ok := translations[dobhasi.HashText(trimmed)]; ok {
			n.Data = preserveWhitespace(n.Data, translated)
		}
	})

	out, err := f.doc.Find("body").Html()
	if err != nil {
		return "", &dobhasi.ProcessorError{
			Message:     "failed to serialize HTML",
			Cause:       err,
			ContentType: p.ContentType(),
		}
	}

	return out, nil
}

// Translate translates the text of an HTML fragment in one batch. Markup,
// ignored elements and data-no-translate subtrees are left untouched. On
// translation failure the gateway falls back to the original text, so the
// fragment comes back unchanged; only parse and serialize failures are errors.
func (p *HTMLProcessor) Translate(ctx context.Context, bt dobhasi.BatchTranslator, content string, override ...dobhasi.Language) (string, error) {
	if dobhasi.IsBlank(content) {
		return content, nil
	}

	fragment, nodes, err := p.Extract(content)
	if err != nil {
		return content, err
	}
	if len(nodes) == 0 {
		return content, nil
	}

	texts := make([]string, len(nodes))
	for i, node := range nodes {
		texts[i] = node.Text
	}

	translated := bt.TranslateBatch(ctx, texts, override...)

	translations := make(map[string]string, len(nodes))
	for i, node := range nodes {
		if translated[i] != node.Text {
			translations[node.Hash] = translated[i]
		}
	}
	if len(translations) == 0 {
		return content, nil
	}

	return p.Apply(fragment, translations)
}

// ContentType returns "html".
func (p *HTMLProcessor) ContentType() string {
	return "html"
}

// walk calls fn for every non-blank text node outside ignored elements.
func (p *HTMLProcessor) walk(doc *goquery.Document, fn func(n *html.Node, trimmed string)) {
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			// Skip ignored tags
			if p.ignoredTags[strings.ToLower(n.Data)] {
				return
			}

			// Skip elements with data-no-translate attribute
			for _, attr := range n.Attr {
				if attr.Key == "data-no-translate" {
					return
				}
			}
		}

		if n.Type == html.TextNode {
			if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
				fn(n, trimmed)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}

	for _, n := range doc.Nodes {
		visit(n)
	}
}

// preserveWhitespace preserves the original leading/trailing whitespace.
func preserveWhitespace(original, translated string) string {
	leadingLen := len(original) - len(strings.TrimLeft(original, " \t\n\r"))
	leading := original[:leadingLen]

	trailingLen := len(original) - len(strings.TrimRight(original, " \t\n\r"))
	trailing := ""
	if trailingLen > 0 {
		trailing = original[len(original)-trailingLen:]
	}

	return leading + translated + trailing
}
