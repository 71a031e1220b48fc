// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Loading accepts context.Context as the first parameter.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"time"

	"github.com/okian/festboard/internal/domain/fanout"
)

// Config contains process configuration shared by the server and the CLI.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// APIBaseURL is the root of the festival REST API.
	APIBaseURL string `koanf:"api_base_url"`

	// RequestTimeoutMS bounds every upstream request. Zero disables the bound.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// FanoutLimit caps concurrent sub-requests per fan-out. Zero means unbounded.
	FanoutLimit int `koanf:"fanout_limit"`

	// FanoutPolicy is fail_fast or collect_all.
	FanoutPolicy string `koanf:"fanout_policy"`

	// OTelEndpoint enables tracing when set, e.g. "http://localhost:4318".
	OTelEndpoint string `koanf:"otel_endpoint"`

	// ServiceName is reported on traces and as the "service" metric label.
	ServiceName string `koanf:"service_name"`

	// MetricsNamespace prefixes every exported metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
}

// DefaultAPIBaseURL is the public festival backend.
const DefaultAPIBaseURL = "https://backend-jq71.onrender.com/api"

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		APIBaseURL:       DefaultAPIBaseURL,
		RequestTimeoutMS: 10_000,
		FanoutLimit:      0,
		FanoutPolicy:     fanout.FailFast.String(),
		ServiceName:      "festboard",
		MetricsNamespace: "festboard",
	}
}

// RequestTimeout returns the upstream request bound.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// Policy returns the parsed fan-out policy.
func (c *Config) Policy() (fanout.Policy, error) {
	return fanout.ParsePolicy(c.FanoutPolicy)
}
