package domain

import (
	"strings"
	"time"
)

// Domain contains core models and interfaces.

// Placeholder values used when an upstream record leaves a field empty.
const (
	DefaultTitle       = "No title available"
	DefaultDescription = "No description available"
	DefaultURL         = "#"
	DefaultImageURL    = "https://images.unsplash.com/photo-1504711434969-e33886168f5c?w=400&h=300&fit=crop"
	DefaultSourceName  = "Unknown Source"
)

// Category is the topic label assigned to an article.
type Category string

const (
	CategoryBusiness      Category = "business"
	CategoryTechnology    Category = "technology"
	CategorySports        Category = "sports"
	CategoryEntertainment Category = "entertainment"
	CategoryHealth        Category = "health"
	CategoryScience       Category = "science"
	CategoryGeneral       Category = "general"
)

// Categories lists every category in classification priority order.
var Categories = []Category{
	CategoryBusiness,
	CategoryTechnology,
	CategorySports,
	CategoryEntertainment,
	CategoryHealth,
	CategoryScience,
	CategoryGeneral,
}

// ParseCategory resolves a category name case-insensitively.
func ParseCategory(raw string) (Category, bool) {
	name := Category(strings.ToLower(strings.TrimSpace(raw)))
	for _, c := range Categories {
		if c == name {
			return c, true
		}
	}
	return "", false
}

// Article is the canonical headline record handed to consumers.
type Article struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"imageUrl"`
	SourceName  string    `json:"sourceName"`
	PublishedAt time.Time `json:"publishedAt"`
	Category    Category  `json:"category"`
}

// HasURL reports whether the article carries a real link rather than the placeholder.
func (a Article) HasURL() bool {
	u := strings.TrimSpace(a.URL)
	return u != "" && u != DefaultURL
}

// DedupKey returns the identity used when merging batches: the url, or the title when no url exists.
func (a Article) DedupKey() string {
	if a.HasURL() {
		return "url:" + strings.TrimSpace(a.URL)
	}
	return "title:" + strings.TrimSpace(a.Title)
}

// Renumber assigns sequential ids starting at 1 in slice order.
func Renumber(articles []Article) []Article {
	for i := range articles {
		articles[i].ID = i + 1
	}
	return articles
}
