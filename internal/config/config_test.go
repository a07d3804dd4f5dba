package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/samvad-headlines/internal/domain"
	"github.com/Adda-Baaj/samvad-headlines/pkg/providers"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(LoadOptions{EnvFile: missingEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, providers.DefaultNewsAPIURL, cfg.NewsAPI.BaseURL)
	assert.Equal(t, "us", cfg.NewsAPI.Country)
	assert.Equal(t, 100, cfg.NewsAPI.PageSize)
	assert.Equal(t, 15*time.Second, cfg.Fetch.Timeout)
	assert.True(t, cfg.Fetch.Precheck)
	assert.True(t, cfg.Fetch.UseMockFallback)
	assert.Equal(t, "@every 5m", cfg.Refresh.Schedule)
	assert.Equal(t, providers.DefaultRSSSourceName, cfg.RSS.SourceName)
	require.Len(t, cfg.CORSProxies, 3)
	assert.Equal(t, "allorigins", cfg.CORSProxies[0].Name)
	assert.False(t, cfg.HasCredential())

	ep := cfg.Endpoints()
	require.Len(t, ep.Relays, 3)
	assert.Equal(t, domain.SourceCORSPrimary, ep.Relays[0].Source)
	assert.Equal(t, domain.SourceCORSTertiary, ep.Relays[2].Source)
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	path := writeFile(t, "headlines.yaml", `
newsapi:
  country: GB
  page_size: 40
  api_key: from-file
proxy:
  url: http://localhost:3000/api/news
cors_proxies:
  - name: only
    template: "https://relay.example/?u={url}"
fetch:
  timeout: 3s
bundle:
  categories: ["Technology", "sports"]
`)
	envFile := writeFile(t, "test.env", "HEADLINES_LOG_LEVEL=debug\n")
	t.Cleanup(func() { _ = os.Unsetenv("HEADLINES_LOG_LEVEL") })
	t.Setenv("HEADLINES_NEWSAPI_LANGUAGE", "en")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("page-size", 0, "")
	flags.Bool("no-precheck", false, "")
	require.NoError(t, flags.Parse([]string{"--page-size=25", "--no-precheck"}))

	cfg, err := Load(LoadOptions{ConfigFile: path, EnvFile: envFile, Flags: flags})
	require.NoError(t, err)

	assert.Equal(t, "gb", cfg.NewsAPI.Country)
	assert.Equal(t, 25, cfg.NewsAPI.PageSize)
	assert.Equal(t, "en", cfg.NewsAPI.Language)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 3*time.Second, cfg.Fetch.Timeout)
	assert.False(t, cfg.Fetch.Precheck)
	assert.Equal(t, "http://localhost:3000/api/news", cfg.Proxy.URL)
	require.Len(t, cfg.CORSProxies, 1)
	assert.Equal(t, []domain.Category{domain.CategoryTechnology, domain.CategorySports}, cfg.BundleCategories())
	assert.True(t, cfg.HasCredential())
}

func TestLoadAPIKeyAlias(t *testing.T) {
	t.Setenv("NEWS_API_KEY", "alias-key")

	cfg, err := Load(LoadOptions{EnvFile: missingEnvFile(t)})
	require.NoError(t, err)
	assert.Equal(t, "alias-key", cfg.NewsAPI.APIKey)
}

func TestPlaceholderKeyIsNotACredential(t *testing.T) {
	cfg := Config{NewsAPI: NewsAPIConfig{APIKey: providers.APIKeyPlaceholder}}
	assert.False(t, cfg.HasCredential())
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml"), EnvFile: missingEnvFile(t)})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Log:         LogConfig{Level: "info", Format: "json"},
			NewsAPI:     NewsAPIConfig{BaseURL: providers.DefaultNewsAPIURL, PageSize: 10},
			Fetch:       FetchConfig{Timeout: time.Second, BundleConcurrency: 1},
			CORSProxies: []RelayConfig{{Name: "a", Template: "https://r.example/{url}"}},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"no base url", func(c *Config) { c.NewsAPI.BaseURL = "" }},
		{"page size zero", func(c *Config) { c.NewsAPI.PageSize = 0 }},
		{"page size too big", func(c *Config) { c.NewsAPI.PageSize = 101 }},
		{"zero timeout", func(c *Config) { c.Fetch.Timeout = 0 }},
		{"zero concurrency", func(c *Config) { c.Fetch.BundleConcurrency = 0 }},
		{"relay without placeholder", func(c *Config) { c.CORSProxies[0].Template = "https://r.example/" }},
		{"relay without name", func(c *Config) { c.CORSProxies[0].Name = "" }},
		{"too many relays", func(c *Config) {
			c.CORSProxies = append(c.CORSProxies, c.CORSProxies[0], c.CORSProxies[0], c.CORSProxies[0])
		}},
		{"unknown category", func(c *Config) { c.Bundle.Categories = []string{"politics"} }},
		{"negative delay", func(c *Config) { c.Enrich.RequestDelay = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
