// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads a profile page. It makes exactly one GET per call
// and classifies failures as timeout, network or HTTP status errors so the
// pipeline can choose the fallback path and log the cause.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/scholar-stats/internal/failure"
)

const (
	// DefaultBaseURL is the profile site.
	DefaultBaseURL = "https://scholar.google.com"

	// DefaultUserAgent mimics a desktop browser; the site rejects bare clients.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/96.0.4664.110 Safari/537.36"

	acceptHeader         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	acceptLanguageHeader = "en-US,en;q=0.5"

	// maxBodyBytes caps how much of a response is read.
	maxBodyBytes = 10 << 20
)

// Fetcher retrieves profile pages over a caller-supplied client.
type Fetcher struct {
	client    *http.Client
	baseURL   string
	userAgent string
	log       *zap.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithBaseURL points the fetcher at another host (tests, mirrors).
func WithBaseURL(u string) Option {
	return func(f *Fetcher) {
		if u != "" {
			f.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.log = l
		}
	}
}

// New returns a Fetcher using client for every request.
func New(client *http.Client, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    client,
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ProfileURL returns the English-language profile page URL for profileID.
func ProfileURL(baseURL, profileID string) string {
	q := url.Values{}
	q.Set("user", profileID)
	q.Set("hl", "en")
	return strings.TrimRight(baseURL, "/") + "/citations?" + q.Encode()
}

// Fetch issues one GET for the profile page and returns the body. It does
// not retry. Errors are *failure.Error with KindTimeout, KindNetwork or
// KindHTTPStatus.
func (f *Fetcher) Fetch(ctx context.Context, profileID string) ([]byte, error) {
	if profileID == "" {
		return nil, failure.Configf("profile id is required")
	}
	target := ProfileURL(f.baseURL, profileID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &failure.Error{Kind: failure.KindConfiguration, Op: "fetch", ProfileID: profileID, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLanguageHeader)

	f.log.Debug("sending profile request", zap.String("url", target))

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &failure.Error{
			Kind:      failure.ClassifyTransport(err),
			Op:        "fetch",
			ProfileID: profileID,
			Err:       fmt.Errorf("HTTP request: %w", err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &failure.Error{
			Kind:       failure.KindHTTPStatus,
			Op:         "fetch",
			ProfileID:  profileID,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d from %s", resp.StatusCode, target),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &failure.Error{
			Kind:      failure.ClassifyTransport(err),
			Op:        "fetch",
			ProfileID: profileID,
			Err:       fmt.Errorf("reading body: %w", err),
		}
	}

	f.log.Debug("profile page received",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
	)
	return body, nil
}
