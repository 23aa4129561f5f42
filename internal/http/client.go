// Package http builds the HTTP clients kwforge uses to reach the
// KeywordForge dashboard, including proxy support and retry helpers.
package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"

	"golang.org/x/net/http2"

	"github.com/keywordforge/kwforge/internal/config"
)

// NewTransferClient creates an HTTP client tuned for chunked CSV uploads.
//
// Key points:
//   - Proxy support (uses NewClient as the base)
//   - Connection reuse across a file's sequential chunk requests
//   - No client-level timeout: the upload loop owns cancellation via context,
//     and the transport's own failure signaling reports stalled connections
//   - HTTP/2 with a DISABLE_HTTP2 escape hatch
func NewTransferClient(cfg *config.Config) (*nethttp.Client, error) {
	baseClient, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}

	tr, ok := baseClient.Transport.(*nethttp.Transport)
	if !ok {
		// NTLM mode wraps the transport in a negotiator; leave it alone.
		baseClient.Timeout = 0
		return baseClient, nil
	}

	// Chunks within a file are strictly sequential, so a small pool is enough.
	// Keeping connections idle between chunks avoids a TLS handshake per chunk.
	tr.MaxIdleConns = 16
	tr.MaxIdleConnsPerHost = 8
	tr.MaxConnsPerHost = 8

	tr.DisableCompression = true // CSV chunks gain nothing from transport compression
	tr.ForceAttemptHTTP2 = true

	_ = http2.ConfigureTransport(tr)

	if os.Getenv("DISABLE_HTTP2") == "true" {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}

	baseClient.Transport = tr
	baseClient.Timeout = 0
	return baseClient, nil
}
