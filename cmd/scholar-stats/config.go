// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/scholar-stats/internal/artifact"
	"github.com/pdiddy/scholar-stats/internal/fetch"
	"github.com/pdiddy/scholar-stats/internal/httputil"
	"github.com/pdiddy/scholar-stats/internal/publish"
	"github.com/pdiddy/scholar-stats/internal/secrets"
	"github.com/pdiddy/scholar-stats/pkg/types"
)

const envPrefix = "SCHOLAR_STATS"

// envKeyReplacer turns nested config keys into environment variable
// suffixes: proxy.insecure_skip_verify becomes PROXY_INSECURE_SKIP_VERIFY.
var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// legacyEnv maps config keys to the environment variable names used by the
// deployment workflow. SCHOLAR_STATS_* names are accepted as well.
var legacyEnv = map[string]string{
	"profile_id":     "SCHOLAR_ID",
	"proxy.host":     "PROXY_SERVER",
	"proxy.port":     "PROXY_PORT",
	"proxy.username": "PROXY_USERNAME",
	"proxy.password": "PROXY_PASSWORD",
}

// configureViper installs defaults and environment bindings on v.
func configureViper(v *viper.Viper) {
	v.SetDefault("output", artifact.DefaultPath)
	v.SetDefault("timeout", httputil.DefaultTimeout)
	v.SetDefault("user_agent", fetch.DefaultUserAgent)
	v.SetDefault("base_url", fetch.DefaultBaseURL)
	v.SetDefault("proxy.insecure_skip_verify", false)
	v.SetDefault("publish.object", publish.DefaultObject)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		_ = v.BindEnv(key, envPrefix+"_"+strings.ToUpper(envKeyReplacer.Replace(key)), legacy)
	}
}

// pipelineConfig assembles the run configuration from v, then fills any
// proxy field still empty from the secrets directory.
func pipelineConfig(v *viper.Viper, secretMap map[string]string) types.PipelineConfig {
	cfg := types.PipelineConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   v.GetDuration("timeout"),
			UserAgent: v.GetString("user_agent"),
			Proxy: types.ProxyConfig{
				Host:               v.GetString("proxy.host"),
				Port:               v.GetString("proxy.port"),
				Username:           v.GetString("proxy.username"),
				Password:           v.GetString("proxy.password"),
				InsecureSkipVerify: v.GetBool("proxy.insecure_skip_verify"),
			},
		},
		ProfileID:  v.GetString("profile_id"),
		BaseURL:    v.GetString("base_url"),
		OutputPath: v.GetString("output"),
		RunLogPath: v.GetString("run_log"),
		Publish: types.PublishConfig{
			Bucket: v.GetString("publish.bucket"),
			Object: v.GetString("publish.object"),
		},
	}
	secrets.ApplyProxy(&cfg.Proxy, secretMap)
	return cfg
}
