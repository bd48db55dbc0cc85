// Package proxy forwards authorized requests to the single backend selected
// for the subject's primary role.
package proxy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/henry-enterprise/portal-gateway/internal/errors"
	"github.com/henry-enterprise/portal-gateway/internal/service"
)

const defaultUpstreamTimeout = 30 * time.Second

// Identity headers attached to every forwarded request. Any inbound values
// for these names are dropped first so a client cannot smuggle identity.
const (
	HeaderAuthEmail   = "X-Auth-Request-Email"
	HeaderAuthUser    = "X-Auth-Request-User"
	HeaderAuthRoles   = "X-Auth-Request-Roles"
	HeaderPrimaryRole = "X-Primary-Role"
)

// hopByHopHeaders must not be relayed in either direction (RFC 9110 §7.6.1).
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Forwarder relays a request to the backend chosen by a routing decision.
// It makes exactly one upstream attempt with a hard deadline; retries are
// the client's problem, not the gateway's.
type Forwarder struct {
	client *http.Client
	logger *slog.Logger
}

// ForwarderOptions configures a Forwarder.
type ForwarderOptions struct {
	// Timeout bounds the whole upstream exchange. Defaults to 30s.
	Timeout time.Duration
	// Transport overrides the upstream round tripper, mainly for tests.
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// NewForwarder creates a Forwarder.
func NewForwarder(opts ForwarderOptions) *Forwarder {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultUpstreamTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Forwarder{
		client: &http.Client{
			Timeout:   timeout,
			Transport: opts.Transport,
			// Relay redirects to the caller instead of following them; the
			// backend's Location values are part of its response.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger,
	}
}

// Forward relays r to the decision's backend and writes the backend response
// to w. The request path and query are preserved; only the scheme and host
// change. The error, if any, is an AppError carrying the failure kind.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, decision service.RouteDecision) error {
	target, err := url.Parse(decision.Target.Backend)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return apperrors.RoutingMisconfiguration(decision.PrimaryRole)
	}

	upstreamURL := *target
	upstreamURL.Path = singleJoiningSlash(target.Path, r.URL.Path)
	upstreamURL.RawQuery = r.URL.RawQuery

	upstream, err := http.NewRequestWithContext(r.Context(), r.Method, upstreamURL.String(), r.Body)
	if err != nil {
		return apperrors.ProxyInternal(err)
	}
	upstream.ContentLength = r.ContentLength

	// Accept-Encoding is dropped so the transport negotiates and transparently
	// decodes compression; the relayed response is then re-framed below.
	copyHeaders(upstream.Header, r.Header, "Accept-Encoding", "X-Auth-Request-Groups")
	f.setIdentityHeaders(upstream.Header, decision)
	setForwardingHeaders(upstream, r)

	resp, err := f.client.Do(upstream)
	if err != nil {
		return f.classifyUpstreamError(r.Context(), decision, err)
	}
	defer resp.Body.Close()

	// Content-Encoding and Content-Length describe the backend's framing,
	// not the body being relayed here.
	copyHeaders(w.Header(), resp.Header, "Content-Encoding", "Content-Length")
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		// Headers are already sent; all we can do is log.
		f.logger.WarnContext(r.Context(), "relaying backend response body failed",
			"backend", decision.Target.Backend, "error", err)
	}
	return nil
}

func (f *Forwarder) setIdentityHeaders(h http.Header, decision service.RouteDecision) {
	h.Set(HeaderAuthEmail, decision.Subject.Email)
	h.Set(HeaderAuthUser, decision.Subject.Username)
	h.Set(HeaderAuthRoles, strings.Join(decision.Roles, ","))
	h.Set(HeaderPrimaryRole, decision.PrimaryRole)
}

func (f *Forwarder) classifyUpstreamError(ctx context.Context, decision service.RouteDecision, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		f.logger.ErrorContext(ctx, "backend timed out",
			"backend", decision.Target.Backend, "role", decision.PrimaryRole)
		return apperrors.BackendTimeout(err)
	case isConnectionError(err):
		f.logger.ErrorContext(ctx, "backend unreachable",
			"backend", decision.Target.Backend, "role", decision.PrimaryRole, "error", err)
		return apperrors.BackendUnavailable(err)
	default:
		f.logger.ErrorContext(ctx, "upstream request failed",
			"backend", decision.Target.Backend, "error", err)
		return apperrors.ProxyInternal(err)
	}
}

func isConnectionError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// copyHeaders copies src into dst, dropping hop-by-hop headers, any headers
// named by the Connection header, the reserved identity headers, and extra.
func copyHeaders(dst, src http.Header, extra ...string) {
	dropped := make(map[string]bool, len(hopByHopHeaders)+4+len(extra))
	for _, h := range extra {
		dropped[h] = true
	}
	for _, h := range hopByHopHeaders {
		dropped[h] = true
	}
	for _, name := range src.Values("Connection") {
		for _, h := range strings.Split(name, ",") {
			if h = http.CanonicalHeaderKey(strings.TrimSpace(h)); h != "" {
				dropped[h] = true
			}
		}
	}
	dropped[HeaderAuthEmail] = true
	dropped[HeaderAuthUser] = true
	dropped[HeaderAuthRoles] = true
	dropped[HeaderPrimaryRole] = true

	for name, values := range src {
		if dropped[name] {
			continue
		}
		for _, v := range values {
			dst.Add(name, v)
		}
	}
}

func setForwardingHeaders(upstream *http.Request, r *http.Request) {
	if clientIP, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		prior := r.Header.Get("X-Forwarded-For")
		if prior != "" {
			clientIP = prior + ", " + clientIP
		}
		upstream.Header.Set("X-Forwarded-For", clientIP)
	}
	proto := "http"
	if r.TLS != nil {
		proto = "https"
	}
	upstream.Header.Set("X-Forwarded-Proto", proto)
	upstream.Header.Set("X-Forwarded-Host", r.Host)
}

// singleJoiningSlash joins base and extra with exactly one slash between.
func singleJoiningSlash(base, extra string) string {
	aslash := strings.HasSuffix(base, "/")
	bslash := strings.HasPrefix(extra, "/")
	switch {
	case aslash && bslash:
		return base + extra[1:]
	case !aslash && !bslash && extra != "":
		return base + "/" + extra
	}
	return base + extra
}
