package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/Adda-Baaj/samvad-headlines/internal/domain"
	"github.com/Adda-Baaj/samvad-headlines/pkg/providers"
)

const (
	envPrefix      = "HEADLINES"
	configPathEnv  = "HEADLINES_CONFIG"
	maxPageSize    = 100
	maxRelays      = 3
	defaultEnvFile = ".env"
)

// Config holds every setting the application reads at start-up.
type Config struct {
	Log         LogConfig      `mapstructure:"log"`
	NewsAPI     NewsAPIConfig  `mapstructure:"newsapi"`
	Proxy       ProxyConfig    `mapstructure:"proxy"`
	CORSProxies []RelayConfig  `mapstructure:"cors_proxies"`
	RSS         RSSConfig      `mapstructure:"rss"`
	Fetch       FetchConfig    `mapstructure:"fetch"`
	Refresh     RefreshConfig  `mapstructure:"refresh"`
	Bundle      BundleConfig   `mapstructure:"bundle"`
	Settings    SettingsConfig `mapstructure:"settings"`
	Publishers  PublishersRef  `mapstructure:"publishers"`
	Enrich      EnrichConfig   `mapstructure:"enrich"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// NewsAPIConfig describes the primary upstream.
type NewsAPIConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	Country   string `mapstructure:"country"`
	Language  string `mapstructure:"language"`
	PageSize  int    `mapstructure:"page_size"`
	UserAgent string `mapstructure:"user_agent"`
}

// ProxyConfig points at an optional self-hosted pass-through.
type ProxyConfig struct {
	URL string `mapstructure:"url"`
}

// RelayConfig is one public CORS relay; Template must contain {url}.
type RelayConfig struct {
	Name     string `mapstructure:"name"`
	Template string `mapstructure:"template"`
}

type RSSConfig struct {
	Endpoint       string `mapstructure:"endpoint"`
	FeedURL        string `mapstructure:"feed_url"`
	SourceName     string `mapstructure:"source_name"`
	DirectFallback bool   `mapstructure:"direct_fallback"`
}

// FetchConfig tunes the fallback chain.
type FetchConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	Precheck          bool          `mapstructure:"precheck"`
	UseMockFallback   bool          `mapstructure:"use_mock_fallback"`
	BundleConcurrency int           `mapstructure:"bundle_concurrency"`
}

type RefreshConfig struct {
	Schedule string `mapstructure:"schedule"`
}

// BundleConfig enables category-merge mode when Categories is non-empty.
type BundleConfig struct {
	Categories []string `mapstructure:"categories"`
}

type SettingsConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// PublishersRef points at the publishers registry file; empty disables publishing.
type PublishersRef struct {
	File string `mapstructure:"file"`
}

type EnrichConfig struct {
	Images       bool          `mapstructure:"images"`
	RequestDelay time.Duration `mapstructure:"request_delay"`
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// ConfigFile is an optional YAML/JSON file. HEADLINES_CONFIG is used when empty.
	ConfigFile string
	// EnvFile is loaded with godotenv before reading the environment. Defaults to .env; a missing file is ignored.
	EnvFile string
	// Flags, when set, are bound onto their matching keys.
	Flags *pflag.FlagSet
}

// flagKeys maps CLI flag names onto configuration keys.
var flagKeys = map[string]string{
	"api-key":    "newsapi.api_key",
	"country":    "newsapi.country",
	"language":   "newsapi.language",
	"page-size":  "newsapi.page_size",
	"proxy-url":  "proxy.url",
	"log-level":  "log.level",
	"log-format": "log.format",
	"categories": "bundle.categories",
	"schedule":   "refresh.schedule",
	"db":         "settings.db_path",
	"publishers": "publishers.file",
	"timeout":    "fetch.timeout",
	"enrich":     "enrich.images",
	"rss-direct": "rss.direct_fallback",
}

// Load merges defaults, the config file, .env, environment variables and flags, in increasing priority.
func Load(opts LoadOptions) (Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = defaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("newsapi.api_key", envPrefix+"_NEWSAPI_API_KEY", "NEWS_API_KEY"); err != nil {
		return Config{}, fmt.Errorf("bind api key env: %w", err)
	}

	path := strings.TrimSpace(opts.ConfigFile)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(configPathEnv))
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	if opts.Flags != nil {
		if err := bindFlags(v, opts.Flags); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.sanitize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("newsapi.base_url", providers.DefaultNewsAPIURL)
	v.SetDefault("newsapi.api_key", "")
	v.SetDefault("newsapi.country", "us")
	v.SetDefault("newsapi.language", "")
	v.SetDefault("newsapi.page_size", 100)
	v.SetDefault("newsapi.user_agent", providers.DefaultUserAgent)

	v.SetDefault("proxy.url", "")

	relays := make([]map[string]any, 0, maxRelays)
	for _, r := range providers.DefaultRelays() {
		relays = append(relays, map[string]any{"name": r.Name, "template": r.Template})
	}
	v.SetDefault("cors_proxies", relays)

	v.SetDefault("rss.endpoint", providers.DefaultRSSEndpoint)
	v.SetDefault("rss.feed_url", providers.DefaultRSSFeedURL)
	v.SetDefault("rss.source_name", providers.DefaultRSSSourceName)
	v.SetDefault("rss.direct_fallback", false)

	v.SetDefault("fetch.timeout", 15*time.Second)
	v.SetDefault("fetch.precheck", true)
	v.SetDefault("fetch.use_mock_fallback", true)
	v.SetDefault("fetch.bundle_concurrency", 4)

	v.SetDefault("refresh.schedule", "@every 5m")
	v.SetDefault("bundle.categories", []string{})
	v.SetDefault("settings.db_path", "./headlines.db")
	v.SetDefault("publishers.file", "")
	v.SetDefault("enrich.images", false)
	v.SetDefault("enrich.request_delay", time.Duration(0))
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	if f := flags.Lookup("no-precheck"); f != nil && f.Changed && f.Value.String() == "true" {
		v.Set("fetch.precheck", false)
	}
	return nil
}

// sanitize trims string fields and lower-cases enumerations.
func (c *Config) sanitize() {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.NewsAPI.BaseURL = strings.TrimSpace(c.NewsAPI.BaseURL)
	c.NewsAPI.APIKey = strings.TrimSpace(c.NewsAPI.APIKey)
	c.NewsAPI.Country = strings.ToLower(strings.TrimSpace(c.NewsAPI.Country))
	c.NewsAPI.Language = strings.ToLower(strings.TrimSpace(c.NewsAPI.Language))
	c.Proxy.URL = strings.TrimSpace(c.Proxy.URL)
	for i := range c.CORSProxies {
		c.CORSProxies[i].Name = strings.TrimSpace(c.CORSProxies[i].Name)
		c.CORSProxies[i].Template = strings.TrimSpace(c.CORSProxies[i].Template)
	}

	cats := make([]string, 0, len(c.Bundle.Categories))
	for _, raw := range c.Bundle.Categories {
		for _, part := range strings.Split(raw, ",") {
			if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
				cats = append(cats, p)
			}
		}
	}
	c.Bundle.Categories = cats
}

// Validate rejects settings the fetch chain cannot work with.
func (c Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	if c.NewsAPI.BaseURL == "" {
		return errors.New("newsapi.base_url is required")
	}
	if c.NewsAPI.PageSize < 1 || c.NewsAPI.PageSize > maxPageSize {
		return fmt.Errorf("newsapi.page_size must be between 1 and %d, got %d", maxPageSize, c.NewsAPI.PageSize)
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive, got %s", c.Fetch.Timeout)
	}
	if c.Fetch.BundleConcurrency < 1 {
		return fmt.Errorf("fetch.bundle_concurrency must be at least 1, got %d", c.Fetch.BundleConcurrency)
	}
	if len(c.CORSProxies) > maxRelays {
		return fmt.Errorf("cors_proxies supports at most %d relays, got %d", maxRelays, len(c.CORSProxies))
	}
	for i, r := range c.CORSProxies {
		if r.Name == "" {
			return fmt.Errorf("cors_proxies[%d].name is required", i)
		}
		if !strings.Contains(r.Template, providers.RelayURLPlaceholder) {
			return fmt.Errorf("cors_proxies[%d].template must contain %s", i, providers.RelayURLPlaceholder)
		}
	}
	for _, name := range c.Bundle.Categories {
		if _, ok := domain.ParseCategory(name); !ok {
			return fmt.Errorf("bundle.categories: unknown category %q", name)
		}
	}
	if c.Enrich.RequestDelay < 0 {
		return fmt.Errorf("enrich.request_delay must not be negative")
	}
	return nil
}

// HasCredential reports whether a usable API key is configured.
func (c Config) HasCredential() bool {
	return c.NewsAPI.APIKey != "" && c.NewsAPI.APIKey != providers.APIKeyPlaceholder
}

// Endpoints converts the upstream settings for the provider registry.
// Relays take their stage identity from their position in the list.
func (c Config) Endpoints() providers.Endpoints {
	order := []domain.Source{domain.SourceCORSPrimary, domain.SourceCORSSecondary, domain.SourceCORSTertiary}

	relays := make([]providers.Relay, 0, len(c.CORSProxies))
	for i, r := range c.CORSProxies {
		if i >= len(order) {
			break
		}
		relays = append(relays, providers.Relay{Source: order[i], Name: r.Name, Template: r.Template})
	}

	return providers.Endpoints{
		NewsAPIURL:    c.NewsAPI.BaseURL,
		ProxyURL:      c.Proxy.URL,
		Relays:        relays,
		RSSEndpoint:   c.RSS.Endpoint,
		RSSFeedURL:    c.RSS.FeedURL,
		RSSSourceName: c.RSS.SourceName,
		UserAgent:     c.NewsAPI.UserAgent,
	}
}

// BundleCategories returns the parsed bundle categories.
func (c Config) BundleCategories() []domain.Category {
	out := make([]domain.Category, 0, len(c.Bundle.Categories))
	for _, name := range c.Bundle.Categories {
		if cat, ok := domain.ParseCategory(name); ok {
			out = append(out, cat)
		}
	}
	return out
}
