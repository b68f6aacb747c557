package extract

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// SameHostLinks returns the http(s) links of a page that point to the
// page's own host, resolved and deduplicated, in document order.
// Fragments are dropped so "/a#x" and "/a#y" count as one page.
func SameHostLinks(htmlContent string, sourceURL string) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(sourceURL)
	if err != nil {
		return nil, err
	}

	var links []string
	var walk func(*html.Node)

	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			href := ""
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					href = strings.TrimSpace(attr.Val)
				}
			}

			if href != "" {
				if resolved := resolveURL(baseURL, href); resolved != "" {
					if parsed, err := url.Parse(resolved); err == nil && parsed.Host == baseURL.Host {
						links = append(links, resolved)
					}
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return dedupeLinks(links, baseURL.String()), nil
}

// resolveURL resolves a relative URL against a base URL
func resolveURL(base *url.URL, href string) string {
	// Skip anchors
	if strings.HasPrefix(href, "#") {
		return ""
	}

	// Skip javascript: and mailto: links
	if strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(parsed)
	resolved.Fragment = ""

	// Only keep http/https URLs
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}

	return resolved.String()
}

// dedupeLinks removes duplicates and the page's own URL
func dedupeLinks(links []string, self string) []string {
	seen := map[string]bool{self: true}
	var unique []string

	for _, l := range links {
		if !seen[l] {
			seen[l] = true
			unique = append(unique, l)
		}
	}

	return unique
}
