package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"time"
)

type HTTPChecker struct {
	Client *http.Client
}

// NewHTTPChecker returns a checker sharing one transport across targets.
// Redirects are followed; the per-attempt timeout comes from the target.
func NewHTTPChecker() *HTTPChecker {
	return &HTTPChecker{
		Client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     30 * time.Second,
			},
		},
	}
}

// Check issues one GET. Any received response counts as success; the status code
// is reported for downstream policy.
func (h *HTTPChecker) Check(ctx context.Context, target string, timeout time.Duration) CheckResult {
	if timeout <= 0 {
		timeout = time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return failed(err.Error())
	}

	start := time.Now()
	resp, err := h.Client.Do(req)
	if err != nil {
		return failed(classifyHTTPError(err))
	}
	latency := int(time.Since(start).Milliseconds())
	_ = resp.Body.Close()

	code := resp.StatusCode
	return succeeded(latency, &code)
}

// classifyHTTPError maps transport errors to short categories:
// "timeout", "connect_error" or "http_error: <kind>". Anything else keeps its text.
func classifyHTTPError(err error) string {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return "timeout"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "connect_error"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Op == "dial" {
			return "connect_error"
		}
		return "http_error: " + opErr.Op
	}

	var (
		recErr   tls.RecordHeaderError
		certErr  *tls.CertificateVerificationError
		authErr  x509.UnknownAuthorityError
		hostErr  x509.HostnameError
		invalErr x509.CertificateInvalidError
	)
	switch {
	case errors.As(err, &recErr), errors.As(err, &certErr), errors.As(err, &authErr),
		errors.As(err, &hostErr), errors.As(err, &invalErr):
		return "http_error: tls"
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return "http_error: eof"
	case errors.Is(err, context.Canceled):
		return "http_error: canceled"
	}
	return err.Error()
}
