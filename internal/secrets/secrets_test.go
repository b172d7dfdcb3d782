// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/scholar-stats/pkg/types"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  map[string]string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, KeyProxyUsername, "  scraper  \n")
				writeFile(t, dir, KeyProxyPassword, "s3cr3t")
				return dir
			},
			want: map[string]string{
				KeyProxyUsername: "scraper",
				KeyProxyPassword: "s3cr3t",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, KeyProxyHost, "pr.example.net")
				writeFile(t, dir, KeyProxyPort, "")
				writeFile(t, dir, KeyProxyPassword, "   \n\t  ")
				return dir
			},
			want: map[string]string{
				KeyProxyHost: "pr.example.net",
			},
		},
		{
			name: "skips dotfiles and subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".proxy-password", "old")
				writeFile(t, dir, KeyProxyPassword, "current")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0o755))
				return dir
			},
			want: map[string]string{
				KeyProxyPassword: "current",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}
	dir := t.TempDir()
	writeFile(t, dir, KeyProxyUsername, "scraper")

	badPath := filepath.Join(dir, KeyProxyPassword)
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	core, logs := observer.New(zap.WarnLevel)
	got, err := Load(dir, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, "scraper", got[KeyProxyUsername])
	_, hasBad := got[KeyProxyPassword]
	assert.False(t, hasBad, "unreadable file should not appear in result")
	assert.Equal(t, 1, logs.FilterMessage("could not read secret").Len())
}

func TestApplyProxy(t *testing.T) {
	secrets := map[string]string{
		KeyProxyHost:     "pr.example.net",
		KeyProxyPort:     "7777",
		KeyProxyUsername: "from-file",
		KeyProxyPassword: "file-pass",
	}

	t.Run("fills empty fields", func(t *testing.T) {
		var p types.ProxyConfig
		ApplyProxy(&p, secrets)
		assert.Equal(t, types.ProxyConfig{Host: "pr.example.net", Port: "7777", Username: "from-file", Password: "file-pass"}, p)
	})

	t.Run("keeps values already set", func(t *testing.T) {
		p := types.ProxyConfig{Username: "from-env", InsecureSkipVerify: true}
		ApplyProxy(&p, secrets)
		assert.Equal(t, "from-env", p.Username)
		assert.Equal(t, "file-pass", p.Password)
		assert.True(t, p.InsecureSkipVerify)
	})

	t.Run("no secrets leaves proxy disabled", func(t *testing.T) {
		var p types.ProxyConfig
		ApplyProxy(&p, map[string]string{})
		assert.False(t, p.Enabled())
	})
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
