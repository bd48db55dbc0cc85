package config

import "strings"

// ObservabilityConfig groups configuration that controls metrics emission.
type ObservabilityConfig struct {
	Metrics ObservabilityMetricsConfig
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.Metrics.Sanitize()
}

// ObservabilityMetricsConfig controls the Prometheus endpoint and the
// optional StatsD mirror.
type ObservabilityMetricsConfig struct {
	// Enabled mounts GET /metrics on the gateway.
	Enabled bool `env:"OBSERVABILITY_METRICS_ENABLED" envDefault:"true"`

	// StatsdEnabled mirrors counters and timings to a StatsD daemon.
	StatsdEnabled bool   `env:"OBSERVABILITY_METRICS_STATSD_ENABLED" envDefault:"false"`
	StatsdAddress string `env:"OBSERVABILITY_METRICS_STATSD_ADDRESS" envDefault:"127.0.0.1:8125"`
}

// Sanitize normalises derived fields and enforces safe defaults.
func (c *ObservabilityMetricsConfig) Sanitize() {
	c.StatsdAddress = strings.TrimSpace(c.StatsdAddress)
	if c.StatsdAddress == "" {
		c.StatsdEnabled = false
	}
}

// StatsdIsEnabled returns true when StatsD mirroring is active after sanitisation.
func (c *ObservabilityMetricsConfig) StatsdIsEnabled() bool {
	return c.StatsdEnabled && c.StatsdAddress != ""
}
