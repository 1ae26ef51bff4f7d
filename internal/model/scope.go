package model

import (
	"fmt"
	"strings"
)

// Scope restricts which class of targets a crawl run may fetch.
type Scope string

// Valid crawl scopes.
const (
	// ScopeClearnet fetches only targets reachable over a direct route.
	// Targets requiring anonymous routing are skipped entirely.
	ScopeClearnet Scope = "clearnet"

	// ScopeAnonymized fetches only targets that require anonymous routing.
	// Ordinary web targets are skipped entirely.
	ScopeAnonymized Scope = "anonymized"

	// ScopeHybrid fetches both target classes.
	ScopeHybrid Scope = "hybrid"
)

// ParseScope converts a string into a Scope.
// Matching is case-insensitive. An empty string defaults to ScopeHybrid
// because that is the least surprising behavior for a monitoring run.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ScopeHybrid):
		return ScopeHybrid, nil
	case string(ScopeClearnet):
		return ScopeClearnet, nil
	case string(ScopeAnonymized):
		return ScopeAnonymized, nil
	default:
		return "", fmt.Errorf("invalid scope %q (valid: clearnet, anonymized, hybrid)", s)
	}
}

// Allows reports whether the scope permits fetching a target that does or
// does not require anonymous routing.
func (s Scope) Allows(requiresAnonymousRoute bool) bool {
	switch s {
	case ScopeClearnet:
		return !requiresAnonymousRoute
	case ScopeAnonymized:
		return requiresAnonymousRoute
	case ScopeHybrid:
		return true
	default:
		return false
	}
}

// String returns the scope as its wire representation.
func (s Scope) String() string { return string(s) }

// Route identifies the network path a document was fetched over.
type Route string

// Valid fetch routes.
const (
	// RouteDirect is an ordinary clearnet fetch.
	RouteDirect Route = "direct"

	// RouteAnonymized is a fetch through the local anonymizing proxy.
	RouteAnonymized Route = "anonymized"
)

// String returns the route as its wire representation.
func (r Route) String() string { return string(r) }
