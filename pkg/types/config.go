// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ProxyConfig holds the optional upstream forward proxy. Either every
// field is set or none is.
type ProxyConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     string `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"-" yaml:"password"`

	// InsecureSkipVerify disables certificate-chain validation. Some proxies
	// intercept TLS and present their own certificate. Off unless set.
	InsecureSkipVerify bool `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// Enabled reports whether any proxy field is set.
func (p ProxyConfig) Enabled() bool {
	return p.Host != "" || p.Port != "" || p.Username != "" || p.Password != ""
}

// Endpoint returns host:port without credentials, safe for logs.
func (p ProxyConfig) Endpoint() string {
	if p.Host == "" {
		return ""
	}
	return p.Host + ":" + p.Port
}

// HTTPConfig holds the settings used to build the outbound client.
type HTTPConfig struct {
	// Timeout bounds the whole request, connection through body read.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with the profile request.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// Proxy is the optional authenticated forward proxy.
	Proxy ProxyConfig `json:"proxy" yaml:"proxy"`
}

// PublishConfig names an optional GCS object that mirrors the artifact.
type PublishConfig struct {
	Bucket string `json:"bucket" yaml:"bucket"`
	Object string `json:"object" yaml:"object"`
}

// PipelineConfig holds the settings of one pipeline run.
type PipelineConfig struct {
	HTTPConfig `yaml:",inline"`

	// ProfileID identifies the profile page to scrape. Required.
	ProfileID string `json:"profile_id" yaml:"profile_id"`

	// BaseURL is the scheme and host of the profile site.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// OutputPath is where the artifact is written.
	OutputPath string `json:"output" yaml:"output"`

	// RunLogPath is an optional SQLite file recording each run.
	RunLogPath string `json:"run_log,omitempty" yaml:"run_log,omitempty"`

	Publish PublishConfig `json:"publish" yaml:"publish"`
}
