package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/CDTO-DENKART/app-visualizer/internal/domain"
	"github.com/CDTO-DENKART/app-visualizer/internal/metrics"
	"github.com/CDTO-DENKART/app-visualizer/internal/utils"
	"github.com/CDTO-DENKART/app-visualizer/internal/version"
)

const (
	// DefaultTimeout bounds a probe when the caller passes no timeout.
	DefaultTimeout = 3 * time.Second

	ReasonNotProbed = "protocol not probed"
)

// Prober performs lightweight existence checks against service URLs.
type Prober interface {
	Probe(ctx context.Context, url string, timeout time.Duration) domain.Reachability
}

// HTTPProber issues HEAD requests without transferring a body.
type HTTPProber struct {
	// InsecureSkipVerify accepts self-signed certificates (LXD API, lab services).
	InsecureSkipVerify bool
	// UserAgent is sent on every request.
	UserAgent string
}

// NewHTTPProber returns a prober with the default client identity.
func NewHTTPProber(insecureSkipVerify bool) *HTTPProber {
	return &HTTPProber{
		InsecureSkipVerify: insecureSkipVerify,
		UserAgent:          version.UserAgent(),
	}
}

// Probe checks url and never fails past this boundary: every failure mode
// collapses into the returned result.
func (p *HTTPProber) Probe(ctx context.Context, url string, timeout time.Duration) domain.Reachability {
	res := p.probe(ctx, url, timeout)
	metrics.ProbeResults.WithLabelValues(resultLabel(res)).Inc()
	return res
}

func (p *HTTPProber) probe(ctx context.Context, url string, timeout time.Duration) domain.Reachability {
	if strings.HasPrefix(strings.ToLower(url), "ssh://") {
		return domain.Undetermined(ReasonNotProbed)
	}
	if url == "" {
		return domain.Reachable(false, "empty url")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := p.client(timeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, http.NoBody)
	if err != nil {
		return domain.Reachable(false, fmt.Sprintf("invalid url: %v", err))
	}
	req.Header.Set("User-Agent", p.userAgent())

	resp, err := client.Do(req)
	if err != nil {
		return domain.Reachable(false, describeError(ctx, err))
	}
	defer utils.Close(resp.Body)

	if IsAvailableStatus(resp.StatusCode) {
		return domain.Reachable(true, "")
	}
	return domain.Reachable(false, fmt.Sprintf("unexpected status %d", resp.StatusCode))
}

func (p *HTTPProber) client(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   timeout,
				KeepAlive: 0,
			}).DialContext,
			TLSHandshakeTimeout: timeout,
			TLSClientConfig: &tls.Config{
				MinVersion:         tls.VersionTLS12,
				InsecureSkipVerify: p.InsecureSkipVerify, //nolint:gosec // opt-in for self-signed lab services
			},
			DisableKeepAlives: true,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// A redirect already proves the service answers.
			return http.ErrUseLastResponse
		},
	}
}

func (p *HTTPProber) userAgent() string {
	if p.UserAgent != "" {
		return p.UserAgent
	}
	return version.UserAgent()
}

// IsAvailableStatus reports whether a status code counts as available:
// success or one of the redirect codes 301-303, 307, 308.
func IsAvailableStatus(code int) bool {
	switch code {
	case http.StatusOK,
		http.StatusMovedPermanently,
		http.StatusFound,
		http.StatusSeeOther,
		http.StatusTemporaryRedirect,
		http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}

func describeError(ctx context.Context, err error) string {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	return err.Error()
}

func resultLabel(r domain.Reachability) string {
	switch {
	case r.Available == nil:
		return "skipped"
	case *r.Available:
		return "available"
	default:
		return "unavailable"
	}
}
