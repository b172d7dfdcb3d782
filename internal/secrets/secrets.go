// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file holds one secret: the filename is the key and the trimmed
// contents are the value. Values never pass through the config file.
//
// Recognised keys: proxy-host, proxy-port, proxy-username, proxy-password.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/scholar-stats/pkg/types"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets"

// Keys of the proxy secret files.
const (
	KeyProxyHost     = "proxy-host"
	KeyProxyPort     = "proxy-port"
	KeyProxyUsername = "proxy-username"
	KeyProxyPassword = "proxy-password"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory is not an error; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string, log *zap.Logger) (map[string]string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", zap.String("key", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// ApplyProxy fills the empty fields of p from the proxy secret files.
// Fields already set by flags, environment or config win.
func ApplyProxy(p *types.ProxyConfig, secrets map[string]string) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = secrets[key]
		}
	}
	fill(&p.Host, KeyProxyHost)
	fill(&p.Port, KeyProxyPort)
	fill(&p.Username, KeyProxyUsername)
	fill(&p.Password, KeyProxyPassword)
}
