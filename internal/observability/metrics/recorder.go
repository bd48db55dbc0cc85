// Package metrics records authentication and proxy audit events as
// Prometheus families, optionally mirrored to a StatsD sink.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/henry-enterprise/portal-gateway/internal/observability/statsd"
	"github.com/henry-enterprise/portal-gateway/internal/ports"
)

// Recorder implements ports.AuditRecorder on a Prometheus registry.
type Recorder struct {
	loginAttempts      *prometheus.CounterVec
	unauthorizedAccess *prometheus.CounterVec
	totpVerifications  *prometheus.CounterVec
	logouts            prometheus.Counter
	proxyForwards      *prometheus.CounterVec

	directoryAuthDuration prometheus.Histogram
	totpVerifyDuration    prometheus.Histogram

	sink statsd.Sink
}

// RecorderOptions configures a Recorder.
type RecorderOptions struct {
	// Registerer receives the metric families. Defaults to the global
	// prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
	// Sink, when set, receives a StatsD mirror of each event.
	Sink statsd.Sink
}

// NewRecorder creates and registers a Recorder.
func NewRecorder(opts RecorderOptions) *Recorder {
	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &Recorder{
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_login_attempts_total",
			Help: "Primary authentication attempts by outcome and department.",
		}, []string{"status", "department"}),
		unauthorizedAccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_unauthorized_access_total",
			Help: "Logins rejected because the user is not in the department's group.",
		}, []string{"department"}),
		totpVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_totp_verification_total",
			Help: "Second-factor verification attempts by outcome.",
		}, []string{"status"}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portal_logout_total",
			Help: "Explicit logouts.",
		}),
		proxyForwards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_proxy_forward_total",
			Help: "Proxy routing decisions by outcome and primary role.",
		}, []string{"outcome", "role"}),
		directoryAuthDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "portal_directory_auth_duration_seconds",
			Help:    "Latency of directory bind and entry lookup.",
			Buckets: prometheus.DefBuckets,
		}),
		totpVerifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "portal_totp_verification_duration_seconds",
			Help:    "Latency of TOTP secret lookup and code check.",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		sink: opts.Sink,
	}

	reg.MustRegister(
		r.loginAttempts,
		r.unauthorizedAccess,
		r.totpVerifications,
		r.logouts,
		r.proxyForwards,
		r.directoryAuthDuration,
		r.totpVerifyDuration,
	)
	return r
}

var _ ports.AuditRecorder = (*Recorder)(nil)

func (r *Recorder) LoginAttempt(status, department, _ string) {
	r.loginAttempts.WithLabelValues(status, department).Inc()
	if r.sink != nil {
		r.sink.Count("login.attempt", 1, map[string]string{"status": status, "department": department})
	}
}

func (r *Recorder) UnauthorizedAccess(_, requestedDepartment string, _ []string) {
	r.unauthorizedAccess.WithLabelValues(requestedDepartment).Inc()
	if r.sink != nil {
		r.sink.Count("login.unauthorized", 1, map[string]string{"department": requestedDepartment})
	}
}

func (r *Recorder) SecondFactorAttempt(status, _ string) {
	r.totpVerifications.WithLabelValues(status).Inc()
	if r.sink != nil {
		r.sink.Count("totp.attempt", 1, map[string]string{"status": status})
	}
}

func (r *Recorder) DirectoryAuthDuration(d time.Duration) {
	r.directoryAuthDuration.Observe(d.Seconds())
	if r.sink != nil {
		r.sink.Timing("directory.auth", d, nil)
	}
}

func (r *Recorder) SecondFactorDuration(d time.Duration) {
	r.totpVerifyDuration.Observe(d.Seconds())
	if r.sink != nil {
		r.sink.Timing("totp.verify", d, nil)
	}
}

func (r *Recorder) Logout(_ string) {
	r.logouts.Inc()
	if r.sink != nil {
		r.sink.Count("logout", 1, nil)
	}
}

func (r *Recorder) ProxyForward(outcome, role string) {
	r.proxyForwards.WithLabelValues(outcome, role).Inc()
	if r.sink != nil {
		r.sink.Count("proxy.forward", 1, map[string]string{"outcome": outcome, "role": role})
	}
}

// Nop is an AuditRecorder that records nothing. Useful in tests and when
// metrics are disabled.
type Nop struct{}

var _ ports.AuditRecorder = Nop{}

func (Nop) LoginAttempt(_, _, _ string) {}
func (Nop) UnauthorizedAccess(_, _ string, _ []string) {}
func (Nop) SecondFactorAttempt(_, _ string) {}
func (Nop) DirectoryAuthDuration(_ time.Duration) {}
func (Nop) SecondFactorDuration(_ time.Duration) {}
func (Nop) Logout(_ string) {}
func (Nop) ProxyForward(_, _ string) {}
