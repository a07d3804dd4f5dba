// Package presentation turns fetch results into what a reader sees: filtered article lists,
// demo substitution and display settings.
package presentation

import (
	"strings"
	"time"

	"github.com/Adda-Baaj/samvad-headlines/internal/domain"
)

// AllCategories disables category filtering.
const AllCategories = "all"

const demoSuffix = " Using demo data instead."

// View is the resolved state of one refresh.
type View struct {
	Articles []domain.Article `json:"articles"`
	Message  string           `json:"message"`
	Source   domain.Source    `json:"source,omitempty"`
	Reason   domain.Reason    `json:"reason,omitempty"`
	IsError  bool             `json:"is_error"`
	IsMock   bool             `json:"is_mock"`
}

// Resolve builds the view for a result. Failures are replaced by the demo batch when useMock is set.
func Resolve(result domain.FetchResult, useMock bool, now time.Time) View {
	if result.IsOK() {
		articles := result.Articles()
		if articles == nil {
			articles = []domain.Article{}
		}
		return View{Articles: articles, Message: result.Message(), Source: result.Source()}
	}

	v := View{
		Articles: []domain.Article{},
		Message:  result.Message(),
		Reason:   result.Reason(),
		IsError:  true,
	}
	if useMock {
		v.Articles = MockArticles(now)
		v.Message += demoSuffix
		v.Source = domain.SourceMock
		v.IsMock = true
	}
	return v
}

// Filter keeps the articles of category (or every category for "all" and "") whose title or
// description contains query, case-insensitively. Order and ids are preserved.
func Filter(articles []domain.Article, category, query string) []domain.Article {
	category = strings.ToLower(strings.TrimSpace(category))
	query = strings.ToLower(strings.TrimSpace(query))

	out := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if category != "" && category != AllCategories && string(a.Category) != category {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(a.Title), query) &&
			!strings.Contains(strings.ToLower(a.Description), query) {
			continue
		}
		out = append(out, a)
	}
	return out
}
