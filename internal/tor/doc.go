// Package tor provides anonymized-route connectivity: detection of a
// local SOCKS5 proxy, HTTP clients routed through it, onion address
// validation, and an optional embedded Tor daemon fallback.
package tor
