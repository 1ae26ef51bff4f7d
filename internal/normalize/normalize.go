package normalize

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMaxTextLength bounds the clean text kept per document.
const DefaultMaxTextLength = 5000

// scriptStylePattern removes script and style blocks before tag
// stripping, so their contents never leak into the text.
var scriptStylePattern = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)

// bracketPatterns remove inline [..] and {..} blobs, which on crawled
// pages are almost always templating residue or wiki-style citations.
var bracketPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[[^\[\]]*?\]`),
	regexp.MustCompile(`\{[^{}]*?\}`),
}

// stopPatterns are boilerplate token filters applied case-insensitively:
// script keyword noise that survives tag stripping, and cookie-banner
// vocabulary.
var stopPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(function|var|let|const|document|window)\b`),
	regexp.MustCompile(`(?i)\b(cookie|accept|privacy|subscribe|sign up)\b`),
}

var whitespacePattern = regexp.MustCompile(`\s+`)

// Normalizer strips markup and boilerplate from raw page content.
type Normalizer struct {
	maxTextLength int
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithMaxTextLength bounds the clean text length in characters.
func WithMaxTextLength(n int) NormalizerOption {
	return func(nz *Normalizer) {
		if n > 0 {
			nz.maxTextLength = n
		}
	}
}

// NewNormalizer creates a Normalizer with defaults applied.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	nz := &Normalizer{maxTextLength: DefaultMaxTextLength}
	for _, opt := range opts {
		opt(nz)
	}
	return nz
}

// Normalize converts raw markup into clean, bounded text. It is
// idempotent (Normalize(Normalize(x)) == Normalize(x)) and never fails;
// empty or unparsable input yields an empty string.
func (nz *Normalizer) Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	text := scriptStylePattern.ReplaceAllString(raw, " ")
	text = stripTags(text)
	text = scrub(text)

	if runes := []rune(text); len(runes) > nz.maxTextLength {
		// Clip on a rune boundary, then re-scrub: the cut can leave a
		// fragment that a boilerplate filter now matches, and
		// idempotence requires the output to be a fixed point.
		text = scrub(string(runes[:nz.maxTextLength]))
	}

	return text
}

// stripTags extracts the text content of the markup. goquery tolerates
// the malformed HTML common on hidden services; if parsing fails the raw
// input is kept and the markup-character scrub below still applies.
func stripTags(s string) string {
	text := s
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
		text = doc.Text()
	}

	// Extracted text can still carry stray markup characters (broken
	// tags, undecoded entities). Drop them so a second pass has no
	// markup left to interpret.
	replacer := strings.NewReplacer("<", " ", ">", " ", "&", " ")
	return replacer.Replace(text)
}

// scrub applies the bracket and boilerplate filters and collapses
// whitespace. scrub is idempotent on its own output.
func scrub(s string) string {
	// One pass removes only innermost pairs, so nested brackets need
	// repeating until a fixed point. Each pass strictly shrinks the
	// string, so the loop terminates.
	for {
		prev := s
		for _, p := range bracketPatterns {
			s = p.ReplaceAllString(s, " ")
		}
		if s == prev {
			break
		}
	}
	for _, p := range stopPatterns {
		s = p.ReplaceAllString(s, " ")
	}
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}
