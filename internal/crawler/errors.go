package crawler

import "errors"

var (
	// ErrNoSeeds is returned when a crawl is started with an empty seed
	// list.
	ErrNoSeeds = errors.New("crawler: no seed URLs")

	// ErrNoRouteClient is returned when a target requires a route the
	// frontier has no client for, e.g. an onion target without a proxy.
	ErrNoRouteClient = errors.New("crawler: no client for required route")
)
