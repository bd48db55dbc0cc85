package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(RecorderOptions{Registerer: reg})

	r.LoginAttempt("success", "HR", "alice")
	r.LoginAttempt("success", "HR", "carol")
	r.LoginAttempt("failed", "Sales", "bob")
	r.UnauthorizedAccess("bob", "Admin", []string{"sales"})
	r.SecondFactorAttempt("success", "alice")
	r.Logout("alice")
	r.ProxyForward("routed", "hr")

	expected := `
		# HELP portal_login_attempts_total Primary authentication attempts by outcome and department.
		# TYPE portal_login_attempts_total counter
		portal_login_attempts_total{department="HR",status="success"} 2
		portal_login_attempts_total{department="Sales",status="failed"} 1
	`
	require.NoError(t, testutil.CollectAndCompare(r.loginAttempts, strings.NewReader(expected)))

	assert.Equal(t, float64(1), testutil.ToFloat64(r.unauthorizedAccess.WithLabelValues("Admin")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.totpVerifications.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.logouts))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.proxyForwards.WithLabelValues("routed", "hr")))
}

func TestRecorder_Durations(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(RecorderOptions{Registerer: reg})

	r.DirectoryAuthDuration(120 * time.Millisecond)
	r.SecondFactorDuration(3 * time.Millisecond)

	count := testutil.CollectAndCount(r.directoryAuthDuration)
	assert.Equal(t, 1, count)
	count = testutil.CollectAndCount(r.totpVerifyDuration)
	assert.Equal(t, 1, count)
}

type captureSink struct {
	counts  []string
	timings []string
}

func (c *captureSink) Count(name string, _ int64, _ map[string]string) {
	c.counts = append(c.counts, name)
}
func (c *captureSink) Timing(name string, _ time.Duration, _ map[string]string) {
	c.timings = append(c.timings, name)
}

func TestRecorder_MirrorsToSink(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := &captureSink{}
	r := NewRecorder(RecorderOptions{Registerer: reg, Sink: sink})

	r.LoginAttempt("success", "HR", "alice")
	r.DirectoryAuthDuration(time.Millisecond)
	r.ProxyForward("routed", "hr")

	assert.Equal(t, []string{"login.attempt", "proxy.forward"}, sink.counts)
	assert.Equal(t, []string{"directory.auth"}, sink.timings)
}
