// Package transport provides the outbound HTTP transport for supplier calls.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// =============================================================================
// SUPPLIER TRANSPORT
// =============================================================================
//
// CJ sits behind a CDN that fingerprints TLS clients; Go's default hello
// gets throttled well before the documented rate limits. HTTPS calls are
// therefore made with a Chrome-like uTLS hello:
//
//   1. uTLS HelloChrome_Auto for the handshake
//   2. ALPN negotiates h2 or http/1.1
//   3. x/net/http2 frames the connection when h2 was agreed
//
// Plain http (local fakes, sandboxes) skips all of that.
// =============================================================================

// NewSupplierTransport creates the RoundTripper used for all CJ calls.
func NewSupplierTransport(timeout time.Duration) http.RoundTripper {
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}

	return &supplierTransport{
		h2: &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialChromeTLS(ctx, dialer, network, addr)
			},
			ReadIdleTimeout: timeout,
		},
		h1: &http.Transport{
			DialContext: dialer.DialContext,
			DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialChromeTLS(ctx, dialer, network, addr)
			},
			ForceAttemptHTTP2:   false,
			MaxIdleConnsPerHost: 8,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// supplierTransport routes https through h2 with an http/1.1 fallback.
type supplierTransport struct {
	h2 *http2.Transport
	h1 *http.Transport
}

// RoundTrip implements http.RoundTripper.
func (t *supplierTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.h1.RoundTrip(req)
	}

	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}
	// A body already consumed by h2 cannot be replayed.
	if req.Body != nil && req.GetBody == nil {
		return nil, err
	}
	if req.GetBody != nil {
		body, berr := req.GetBody()
		if berr != nil {
			return nil, err
		}
		req = req.Clone(req.Context())
		req.Body = body
	}
	return t.h1.RoundTrip(req)
}

// dialChromeTLS establishes a TLS connection with Chrome's fingerprint.
func dialChromeTLS(ctx context.Context, dialer *net.Dialer, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
		defer conn.SetDeadline(time.Time{})
	}

	tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloChrome_Auto)
	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake with %s: %w", host, err)
	}

	return tlsConn, nil
}
