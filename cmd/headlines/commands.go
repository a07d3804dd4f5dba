package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Adda-Baaj/samvad-headlines/internal/domain"
	"github.com/Adda-Baaj/samvad-headlines/internal/presentation"
	"github.com/Adda-Baaj/samvad-headlines/internal/refresher"
)

func runFetch(ctx context.Context, args []string, stdout io.Writer) error {
	fs := newFlagSet("fetch")
	asJSON := fs.Bool("json", false, "print the view as JSON")
	category := fs.String("category", presentation.AllCategories, "show only this category")
	search := fs.String("search", "", "case-insensitive title/description filter")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(fs)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.refresher.Refresh(ctx)
	view := presentation.Resolve(res, cfg.Fetch.UseMockFallback, time.Now())
	view.Articles = presentation.Filter(view.Articles, *category, *search)
	return printView(stdout, view, *asJSON)
}

func runBundle(ctx context.Context, args []string, stdout io.Writer) error {
	fs := newFlagSet("bundle")
	fs.StringSlice("categories", nil, "comma separated categories to merge")
	asJSON := fs.Bool("json", false, "print the view as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(fs)
	if err != nil {
		return err
	}
	if len(cfg.Bundle.Categories) == 0 {
		return errors.New("at least one category is required (--categories)")
	}
	a, err := newApp(ctx, cfg, cfg.Bundle.Categories)
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.refresher.Refresh(ctx)
	return printView(stdout, presentation.Resolve(res, false, time.Now()), *asJSON)
}

func runWatch(ctx context.Context, args []string, stdout io.Writer) error {
	fs := newFlagSet("watch")
	fs.String("schedule", "", "cron spec or @every interval (default @every 5m)")
	fs.StringSlice("categories", nil, "merge these categories on every cycle")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(fs)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, cfg.Bundle.Categories, refresher.WithListener(func(res domain.FetchResult) {
		view := presentation.Resolve(res, cfg.Fetch.UseMockFallback, time.Now())
		fmt.Fprintf(stdout, "%s  %s (%d articles)\n", time.Now().Format(time.RFC3339), view.Message, len(view.Articles))
	}))
	if err != nil {
		return err
	}
	defer a.Close()

	a.refresher.Refresh(ctx)
	if err := a.refresher.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	a.refresher.Stop()
	return nil
}

func runSettings(args []string, stdout io.Writer) error {
	fs := newFlagSet("settings")
	fs.String("db", "", "settings database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(fs)
	if err != nil {
		return err
	}
	store, err := presentation.OpenSettingsStore(cfg.Settings.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	rest := fs.Args()
	action := "show"
	if len(rest) > 0 {
		action = rest[0]
	}

	var settings presentation.Settings
	switch action {
	case "show":
		settings, err = store.Load()
	case "reset":
		settings, err = store.Reset()
	case "toggle-theme":
		if settings, err = store.Load(); err == nil {
			settings = settings.ToggleTheme()
			err = store.Save(settings)
		}
	case "set":
		if len(rest) != 3 {
			return fmt.Errorf("usage: settings set <key> <value> (keys: %s)", strings.Join(presentation.SettingKeys, ", "))
		}
		if settings, err = store.Load(); err == nil {
			if settings, err = settings.Set(rest[1], rest[2]); err == nil {
				err = store.Save(settings)
			}
		}
	default:
		return fmt.Errorf("unknown settings action %q", action)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(settings)
}

func printView(w io.Writer, view presentation.View, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	fmt.Fprintln(w, view.Message)
	for _, a := range view.Articles {
		fmt.Fprintf(w, "%3d. [%s] %s\n     %s | %s\n", a.ID, a.Category, a.Title, a.SourceName, a.PublishedAt.Format("Jan 2, 2006"))
		if a.HasURL() {
			fmt.Fprintf(w, "     %s\n", a.URL)
		}
	}
	return nil
}
