package tor

import "errors"

// Anonymized-route connectivity errors. Specific sentinels let callers
// distinguish "no proxy running" (degrade by skipping anonymized targets)
// from genuine misconfiguration.
var (
	// ErrProxyNotRunning is returned when no anonymizing proxy is
	// listening on any of the probed local ports.
	ErrProxyNotRunning = errors.New("no anonymizing proxy detected on local ports")

	// ErrProxyNotSOCKS is returned when something answers on the proxy
	// port but does not speak SOCKS5.
	ErrProxyNotSOCKS = errors.New("proxy is not a SOCKS5 proxy")

	// ErrProxyCannotConnect is returned when the TCP connection to a
	// configured proxy address fails.
	ErrProxyCannotConnect = errors.New("cannot connect to anonymizing proxy")

	// ErrInvalidProxyAddress is returned when the proxy address is not
	// in "host:port" format.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)
