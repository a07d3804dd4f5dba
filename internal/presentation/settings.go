package presentation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type Layout string

const (
	LayoutGrid Layout = "grid"
	LayoutList Layout = "list"
)

const (
	minFontSize = 10
	maxFontSize = 32
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Settings are the reader's display preferences.
type Settings struct {
	PrimaryColor    string `json:"primaryColor"`
	BackgroundColor string `json:"backgroundColor"`
	FontFamily      string `json:"fontFamily"`
	FontSize        int    `json:"fontSize"`
	Theme           Theme  `json:"theme"`
	Layout          Layout `json:"layout"`
}

func DefaultSettings() Settings {
	return Settings{
		PrimaryColor:    "#2563eb",
		BackgroundColor: "#ffffff",
		FontFamily:      "Inter",
		FontSize:        16,
		Theme:           ThemeLight,
		Layout:          LayoutGrid,
	}
}

// SettingKeys lists the keys accepted by Set.
var SettingKeys = []string{"primaryColor", "backgroundColor", "fontFamily", "fontSize", "theme", "layout"}

// Set returns a copy with key changed to value. Keys match case-insensitively and ignore
// '-' and '_', so font-size and font_size both name fontSize.
func (s Settings) Set(key, value string) (Settings, error) {
	value = strings.TrimSpace(value)
	out := s

	switch normalizeKey(key) {
	case "primarycolor":
		out.PrimaryColor = value
	case "backgroundcolor":
		out.BackgroundColor = value
	case "fontfamily":
		out.FontFamily = value
	case "fontsize":
		n, err := strconv.Atoi(strings.TrimSuffix(value, "px"))
		if err != nil {
			return s, fmt.Errorf("fontSize %q is not a number: %w", value, err)
		}
		out.FontSize = n
	case "theme":
		out.Theme = Theme(strings.ToLower(value))
	case "layout":
		out.Layout = Layout(strings.ToLower(value))
	default:
		return s, fmt.Errorf("unknown setting %q (known: %s)", key, strings.Join(SettingKeys, ", "))
	}

	if err := out.Validate(); err != nil {
		return s, err
	}
	return out, nil
}

// ToggleTheme flips between light and dark.
func (s Settings) ToggleTheme() Settings {
	if s.Theme == ThemeDark {
		s.Theme = ThemeLight
	} else {
		s.Theme = ThemeDark
	}
	return s
}

func (s Settings) Validate() error {
	if !hexColor.MatchString(s.PrimaryColor) {
		return fmt.Errorf("primaryColor %q is not a hex color", s.PrimaryColor)
	}
	if !hexColor.MatchString(s.BackgroundColor) {
		return fmt.Errorf("backgroundColor %q is not a hex color", s.BackgroundColor)
	}
	if strings.TrimSpace(s.FontFamily) == "" {
		return fmt.Errorf("fontFamily is required")
	}
	if s.FontSize < minFontSize || s.FontSize > maxFontSize {
		return fmt.Errorf("fontSize must be between %d and %d, got %d", minFontSize, maxFontSize, s.FontSize)
	}
	if s.Theme != ThemeLight && s.Theme != ThemeDark {
		return fmt.Errorf("theme must be light or dark, got %q", s.Theme)
	}
	if s.Layout != LayoutGrid && s.Layout != LayoutList {
		return fmt.Errorf("layout must be grid or list, got %q", s.Layout)
	}
	return nil
}

func normalizeKey(key string) string {
	return strings.NewReplacer("-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(key)))
}
