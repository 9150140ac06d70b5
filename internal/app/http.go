package app

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// newLLMHTTPClient returns the HTTP client used for model calls. sslVerify
// false accepts self-signed certificates on local inference servers.
func newLLMHTTPClient(sslVerify bool) *http.Client {
	transport := newTransport()
	if !sslVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for local endpoints
	}
	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// newFetchHTTPClient returns the client used for page retrieval. The overall
// deadline comes from the fetch client's per-request context, so no client
// timeout is set here.
func newFetchHTTPClient() *http.Client {
	return &http.Client{Transport: newTransport()}
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
