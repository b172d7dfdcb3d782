// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scholar-stats/internal/failure"
)

func TestProfileURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		id   string
		want string
	}{
		{"default", DefaultBaseURL, "qc6CJjYAAAAJ", "https://scholar.google.com/citations?hl=en&user=qc6CJjYAAAAJ"},
		{"trailing slash", "http://localhost:8080/", "abc", "http://localhost:8080/citations?hl=en&user=abc"},
		{"escaped", "http://h", "a b&c", "http://h/citations?hl=en&user=a+b%26c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProfileURL(tt.base, tt.id))
		})
	}
}

func TestFetchSuccess(t *testing.T) {
	var gotUA, gotAccept, gotLang, gotUser, gotHL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		gotLang = r.Header.Get("Accept-Language")
		gotUser = r.URL.Query().Get("user")
		gotHL = r.URL.Query().Get("hl")
		assert.Equal(t, "/citations", r.URL.Path)
		w.Write([]byte("<html>profile</html>"))
	}))
	defer srv.Close()

	f := New(srv.Client(), WithBaseURL(srv.URL))
	body, err := f.Fetch(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "<html>profile</html>", string(body))
	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Contains(t, gotAccept, "text/html")
	assert.Equal(t, "en-US,en;q=0.5", gotLang)
	assert.Equal(t, "abc123", gotUser)
	assert.Equal(t, "en", gotHL)
}

func TestFetchCustomUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	_, err := New(srv.Client(), WithBaseURL(srv.URL), WithUserAgent("test-agent/1.0")).Fetch(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "test-agent/1.0", gotUA)
}

func TestFetchHTTPStatus(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusTooManyRequests, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(status)
			}))
			defer srv.Close()

			_, err := New(srv.Client(), WithBaseURL(srv.URL)).Fetch(context.Background(), "abc")
			require.Error(t, err)
			assert.Equal(t, failure.KindHTTPStatus, failure.KindOf(err))
			assert.Equal(t, status, failure.StatusCode(err))
			assert.Equal(t, 1, calls, "fetcher must not retry")
		})
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := srv.Client()
	client.Timeout = 50 * time.Millisecond

	_, err := New(client, WithBaseURL(srv.URL)).Fetch(context.Background(), "abc")
	require.Error(t, err)
	assert.Equal(t, failure.KindTimeout, failure.KindOf(err))
}

func TestFetchConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	_, err = New(&http.Client{Timeout: 2 * time.Second}, WithBaseURL("http://"+addr)).Fetch(context.Background(), "abc")
	require.Error(t, err)
	assert.Equal(t, failure.KindNetwork, failure.KindOf(err))
	assert.True(t, failure.Recoverable(err))
}

func TestFetchEmptyProfileID(t *testing.T) {
	_, err := New(http.DefaultClient).Fetch(context.Background(), "")
	assert.True(t, failure.IsConfiguration(err))
}
