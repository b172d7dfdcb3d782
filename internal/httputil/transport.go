// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil builds the outbound HTTP client used to fetch profile
// pages, optionally through an authenticated forward proxy.
package httputil

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/scholar-stats/internal/failure"
	"github.com/pdiddy/scholar-stats/pkg/types"
)

// DefaultTimeout bounds a profile fetch from dial to the last body byte.
const DefaultTimeout = 30 * time.Second

const (
	dialTimeout         = 10 * time.Second
	tlsHandshakeTimeout = 10 * time.Second
)

// ValidateProxy checks that the proxy settings are all-or-nothing and that
// the port is numeric. A partial proxy is a configuration error; the client
// never falls back to an unauthenticated proxy or a direct connection.
func ValidateProxy(p types.ProxyConfig) error {
	if !p.Enabled() {
		return nil
	}
	var missing []string
	if p.Host == "" {
		missing = append(missing, "host")
	}
	if p.Port == "" {
		missing = append(missing, "port")
	}
	if p.Username == "" {
		missing = append(missing, "username")
	}
	if p.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return failure.Configf("incomplete proxy settings, missing %s", strings.Join(missing, ", "))
	}
	port, err := strconv.Atoi(p.Port)
	if err != nil || port < 1 || port > 65535 {
		return failure.Configf("invalid proxy port %q", p.Port)
	}
	return nil
}

// ProxyURL returns the proxy URL with credentials embedded, or nil when no
// proxy is configured. Never log the result; use ProxyConfig.Endpoint.
func ProxyURL(p types.ProxyConfig) (*url.URL, error) {
	if err := ValidateProxy(p); err != nil {
		return nil, err
	}
	if !p.Enabled() {
		return nil, nil
	}
	return &url.URL{
		Scheme: "http",
		User:   url.UserPassword(p.Username, p.Password),
		Host:   net.JoinHostPort(p.Host, p.Port),
	}, nil
}

// NewClient returns a client configured from cfg. Without a proxy it dials
// the target directly. Certificate validation stays on unless
// cfg.Proxy.InsecureSkipVerify is set.
func NewClient(cfg types.HTTPConfig) (*http.Client, error) {
	proxyURL, err := ProxyURL(cfg.Proxy)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     proxyURL == nil,
		MaxIdleConns:          1,
		IdleConnTimeout:       30 * time.Second,
	}
	if proxyURL != nil {
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	if cfg.Proxy.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // explicit opt-in for TLS-intercepting proxies
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}

// Redact removes the proxy username and password from msg, in raw form and
// in the escaped forms they take inside a proxy URL.
func Redact(msg string, p types.ProxyConfig) string {
	var secrets []string
	if p.Username != "" || p.Password != "" {
		secrets = append(secrets, url.UserPassword(p.Username, p.Password).String())
	}
	if p.Password != "" {
		secrets = append(secrets,
			strings.TrimPrefix(url.UserPassword("", p.Password).String(), ":"),
			url.QueryEscape(p.Password),
			p.Password,
		)
	}
	if p.Username != "" {
		secrets = append(secrets, url.User(p.Username).String(), url.QueryEscape(p.Username), p.Username)
	}
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		msg = strings.ReplaceAll(msg, secret, "[REDACTED]")
	}
	return msg
}
