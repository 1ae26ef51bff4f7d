package crawler

import (
	"io"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Parser extracts the title and outgoing links from HTML content.
//
// golang.org/x/net/html is used rather than regex because it correctly
// handles the malformed markup common on hidden services.
type Parser struct {
	// baseURL is the URL of the page being parsed, used for resolving
	// relative hrefs.
	baseURL *url.URL
}

// ParseResult contains what one parsing pass extracted from a page.
type ParseResult struct {
	// Title is the page title from the <title> tag.
	Title string

	// Links contains all resolved http(s) URLs from href attributes,
	// deduplicated in document order.
	Links []string

	// OnionAddresses contains onion addresses mentioned anywhere in the
	// page text, including outside anchor tags.
	OnionAddresses []string
}

// NewParser creates an HTML parser resolving relative links against
// baseURL.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse parses HTML content in a single pass.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Links:          make([]string, 0),
		OnionAddresses: make([]string, 0),
	}

	seen := make(map[string]bool)
	var textContent strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "title":
				if result.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					result.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "a":
				if href := getAttr(n, "href"); href != "" {
					if resolved := p.resolveURL(href); resolved != "" && !seen[resolved] {
						seen[resolved] = true
						result.Links = append(result.Links, resolved)
					}
				}
			}
		case html.TextNode, html.CommentNode:
			textContent.WriteString(n.Data)
			textContent.WriteString(" ")
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	result.OnionAddresses = extractOnionAddresses(textContent.String())
	return result, nil
}

// resolveURL resolves a relative href against the base URL. Non-web
// schemes and bare fragments resolve to "".
func (p *Parser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") ||
		href == "#" {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := p.baseURL.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}

// onionRegex captures both v2 (16 char) and v3 (56 char) onion
// addresses, whether or not they appear inside a URL.
var onionRegex = regexp.MustCompile(`[a-z2-7]{16,56}\.onion`)

func extractOnionAddresses(text string) []string {
	matches := onionRegex.FindAllString(strings.ToLower(text), -1)

	seen := make(map[string]bool)
	unique := make([]string, 0)
	for _, addr := range matches {
		if !seen[addr] {
			seen[addr] = true
			unique = append(unique, addr)
		}
	}
	return unique
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
