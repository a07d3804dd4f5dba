package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/Adda-Baaj/samvad-headlines/internal/config"
	"github.com/Adda-Baaj/samvad-headlines/internal/crawler"
	"github.com/Adda-Baaj/samvad-headlines/internal/domain"
	"github.com/Adda-Baaj/samvad-headlines/internal/logger"
	"github.com/Adda-Baaj/samvad-headlines/internal/pipeline"
	"github.com/Adda-Baaj/samvad-headlines/internal/refresher"
	"github.com/Adda-Baaj/samvad-headlines/pkg/httpclient"
	"github.com/Adda-Baaj/samvad-headlines/pkg/providers"
	"github.com/Adda-Baaj/samvad-headlines/pkg/publishers"
)

// newFlagSet registers the flags shared by every fetching command.
func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "YAML or JSON config file (defaults to $HEADLINES_CONFIG)")
	fs.String("env-file", "", "dotenv file loaded before reading the environment (default .env)")
	fs.String("log-level", "info", "debug, info, warn or error")
	fs.String("log-format", "json", "json or console")
	fs.String("api-key", "", "NewsAPI key")
	fs.String("country", "us", "two letter country code")
	fs.String("language", "", "optional language filter")
	fs.Int("page-size", 100, "articles to request")
	fs.String("proxy-url", "", "self-hosted proxy tried before NewsAPI")
	fs.Duration("timeout", 0, "per request timeout")
	fs.Bool("no-precheck", false, "skip the credential probe")
	fs.Bool("rss-direct", false, "parse the BBC feed directly when rss2json fails")
	fs.Bool("enrich", false, "scrape og:image and og:description for placeholder fields")
	fs.String("publishers", "", "publishers file; refresh events are sent to every enabled entry")
	return fs
}

// app is the wiring shared by fetch, bundle and watch.
type app struct {
	cfg        config.Config
	log        logger.Logger
	refresher  *refresher.Refresher
	publishers []publishers.Publisher
}

func loadConfig(fs *pflag.FlagSet) (config.Config, error) {
	configFile, _ := fs.GetString("config")
	envFile, _ := fs.GetString("env-file")
	return config.Load(config.LoadOptions{ConfigFile: configFile, EnvFile: envFile, Flags: fs})
}

// newApp builds the fetch stack from cfg. categories switches the refresher to bundle mode.
func newApp(ctx context.Context, cfg config.Config, categories []string, opts ...refresher.Option) (*app, error) {
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	client := httpclient.NewRestyClient(cfg.Fetch.Timeout)
	endpoints := cfg.Endpoints()
	relays := make([]domain.Source, 0, len(endpoints.Relays))
	for _, r := range endpoints.Relays {
		relays = append(relays, r.Source)
	}

	orch := pipeline.New(providers.DefaultRegistry(client, endpoints), log, pipeline.Settings{
		Timeout:           cfg.Fetch.Timeout,
		Precheck:          cfg.Fetch.Precheck,
		Relays:            relays,
		FeedSourceName:    cfg.RSS.SourceName,
		DirectFeed:        cfg.RSS.DirectFallback,
		BundleConcurrency: cfg.Fetch.BundleConcurrency,
	})

	a := &app{cfg: cfg, log: log}
	if cfg.Enrich.Images {
		opts = append(opts, refresher.WithEnricher(crawler.NewScraper(client, log, cfg.Enrich.RequestDelay, cfg.NewsAPI.UserAgent)))
	}
	if cfg.Publishers.File != "" {
		pubs, err := publishers.Open(ctx, cfg.Publishers.File, client, log)
		if err != nil {
			return nil, fmt.Errorf("open publishers: %w", err)
		}
		a.publishers = pubs
		opts = append(opts, refresher.WithPublishers(pubs...))
	}

	a.refresher, err = refresher.New(orch, log, refresher.Config{
		Schedule: cfg.Refresh.Schedule,
		Options: pipeline.Options{
			Country:  cfg.NewsAPI.Country,
			PageSize: cfg.NewsAPI.PageSize,
			Language: cfg.NewsAPI.Language,
			ProxyURL: cfg.Proxy.URL,
			APIKey:   cfg.NewsAPI.APIKey,
		},
		Categories: categories,
	}, opts...)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) Close() error {
	err := publishers.CloseAll(a.publishers)
	// zap reports EINVAL when syncing a terminal.
	_ = a.log.Sync()
	return err
}
