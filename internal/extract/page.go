package extract

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Sentence length bounds, in runes, for text learned from pages
const (
	minSentenceRunes = 8
	maxSentenceRunes = 300
)

// PageText parses HTML and returns the visible text of its <body>.
// Scripts, styles and embedded frames are skipped.
func PageText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	root := findBody(doc)
	if root == nil {
		return "", nil
	}

	return strings.TrimSpace(extractVisibleText(root)), nil
}

// PageSentences returns the sentences of a page that are short enough
// to be fed through the fact extraction rules
func PageSentences(htmlContent string) ([]string, error) {
	text, err := PageText(htmlContent)
	if err != nil {
		return nil, err
	}
	return dedupeSentences(splitSentences(text)), nil
}

// findBody returns the <body> element, or nil if the document has none
func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if body := findBody(c); body != nil {
			return body
		}
	}
	return nil
}

// extractVisibleText extracts text nodes from HTML, skipping scripts/styles
func extractVisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "template":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}

// splitSentences splits text into sentences (simple heuristic).
// A terminator only ends a sentence when followed by whitespace or the end of text.
func splitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")
	runes := []rune(text)

	var sentences []string
	var current strings.Builder

	flush := func() {
		sentence := strings.TrimSpace(current.String())
		if n := utf8.RuneCountInString(sentence); n >= minSentenceRunes && n <= maxSentenceRunes {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	for i, r := range runes {
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			if i+1 == len(runes) || runes[i+1] == ' ' || runes[i+1] == '\t' {
				flush()
			}
		}
	}

	if current.Len() > 0 {
		flush()
	}

	return sentences
}

// dedupeSentences removes repeated sentences (case-insensitive)
func dedupeSentences(sentences []string) []string {
	seen := make(map[string]bool)
	var unique []string

	for _, s := range sentences {
		key := strings.ToLower(strings.TrimSpace(s))
		if !seen[key] {
			seen[key] = true
			unique = append(unique, s)
		}
	}

	return unique
}
