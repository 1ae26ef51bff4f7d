package tor

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

// DefaultProbeTimeout bounds a single port probe. The probe is a bare
// loopback dial; a listening proxy answers in well under a second.
const DefaultProbeTimeout = 800 * time.Millisecond

// DetectProxy probes the given loopback ports for a listening anonymizing
// proxy and returns the first address that accepts a TCP connection. The
// check happens once at startup; ErrProxyNotRunning means anonymized
// targets should be skipped rather than failed loudly.
func DetectProxy(ctx context.Context, ports []int, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	var d net.Dialer
	for _, port := range ports {
		addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))

		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		conn, err := d.DialContext(probeCtx, "tcp", addr)
		cancel()
		if err != nil {
			continue
		}
		_ = conn.Close()
		return addr, nil
	}

	return "", ErrProxyNotRunning
}

// Client provides anonymized network connectivity through a SOCKS5 proxy.
// It wraps a cached dialer and builds HTTP clients routed through it.
type Client struct {
	proxyAddress string
	dialer       proxy.Dialer
	timeout      time.Duration
}

// NewClient creates a Client for the proxy at "host:port". The address
// format is validated but no connection is made; call CheckConnection to
// verify the proxy is actually reachable and speaks SOCKS5.
func NewClient(proxyAddress string, timeout time.Duration) (*Client, error) {
	if !isValidProxyAddress(proxyAddress) {
		return nil, ErrInvalidProxyAddress
	}

	// Tor's SOCKS port does not require authentication.
	dialer, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	return &Client{
		proxyAddress: proxyAddress,
		dialer:       dialer,
		timeout:      timeout,
	}, nil
}

// ProxyAddress returns the configured proxy address.
func (c *Client) ProxyAddress() string { return c.proxyAddress }

// isValidProxyAddress checks "host:port" format with a numeric port in
// range. A full URL parser is unnecessary for this shape.
func isValidProxyAddress(address string) bool {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return false
	}
	return port >= 1 && port <= 65535
}

// SOCKS5 protocol constants used by the handshake check.
const (
	socks5Version      = 0x05
	socks5AuthNone     = 0x00
	socks5AuthNoAccept = 0xFF
)

// CheckConnection verifies that the proxy is reachable and negotiates a
// SOCKS5 handshake. A plain TCP accept is not enough: an unrelated
// service on the port would pass a dial check but cannot complete the
// version negotiation.
func (c *Client) CheckConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultProbeTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.proxyAddress)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrProxyCannotConnect, c.proxyAddress)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(DefaultProbeTimeout)); err != nil {
		return fmt.Errorf("%w: %s", ErrProxyCannotConnect, c.proxyAddress)
	}

	// Version negotiation: offer no-auth only.
	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return fmt.Errorf("%w: %s", ErrProxyCannotConnect, c.proxyAddress)
	}

	resp := make([]byte, 2)
	if _, err := io.ReadFull(conn, resp); err != nil {
		return ErrProxyNotSOCKS
	}
	if resp[0] != socks5Version || resp[1] == socks5AuthNoAccept || resp[1] != socks5AuthNone {
		return ErrProxyNotSOCKS
	}

	return nil
}

// NewHTTPClient returns an HTTP client that routes all requests through
// the SOCKS5 proxy. TLS verification is disabled because hidden services
// use self-signed certificates; cookies are kept for crawl sessions; the
// redirect limit prevents loops.
func (c *Client) NewHTTPClient() *http.Client {
	transport := &http.Transport{
		Dial: c.dialer.Dial,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // Hidden services use self-signed certs
		},
		MaxIdleConns:        10,
		IdleConnTimeout:     60 * time.Second,
		TLSHandshakeTimeout: 30 * time.Second,
		DisableKeepAlives:   false,
	}

	jar, _ := cookiejar.New(nil)

	return &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   c.timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects (%d)", len(via))
			}
			return nil
		},
	}
}
