package model

import (
	"net/url"
	"strings"
	"time"
)

// OnionSuffix marks hostnames that are unreachable without the anonymizing
// proxy.
const OnionSuffix = ".onion"

// CrawlTarget is a URL queued for fetching. Targets exist only in the
// active frontier; they are discarded once dispatched or filtered out.
type CrawlTarget struct {
	// URL is the absolute URL to fetch.
	URL string

	// Depth is the link distance from the seed. Seeds are depth 0;
	// discovered links inherit the parent's depth plus one.
	Depth int

	// RequiresAnonymousRoute is true when the target's hostname can only
	// be reached through the anonymizing proxy. Derived from the URL,
	// never set directly.
	RequiresAnonymousRoute bool
}

// NewCrawlTarget builds a CrawlTarget, deriving the routing requirement
// from the URL's hostname.
func NewCrawlTarget(rawURL string, depth int) CrawlTarget {
	return CrawlTarget{
		URL:                    rawURL,
		Depth:                  depth,
		RequiresAnonymousRoute: RequiresAnonymousRoute(rawURL),
	}
}

// RequiresAnonymousRoute reports whether the URL's hostname ends in the
// onion suffix. Unparsable URLs fall back to a suffix check on the raw
// string so that routing decisions never silently default to a direct
// fetch of a hidden service.
func RequiresAnonymousRoute(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return strings.HasSuffix(strings.ToLower(strings.TrimSuffix(rawURL, "/")), OnionSuffix)
	}
	return strings.HasSuffix(strings.ToLower(u.Hostname()), OnionSuffix)
}

// FetchedDocument is the raw result of a single page fetch. It is
// transient: the normalizer consumes it immediately.
type FetchedDocument struct {
	// URL is the final URL of the fetched page.
	URL string

	// Title is the page title extracted from the <title> tag.
	Title string

	// RawContent is the response body, bounded by the fetcher's
	// maximum body size.
	RawContent string

	// Route is the network path the fetch used.
	Route Route

	// Depth is the crawl depth of the target that produced this page.
	Depth int

	// FetchedAt is when the fetch completed.
	FetchedAt time.Time
}
