// Package categorize assigns a topic label to an article from its text.
package categorize

import (
	"strings"

	"github.com/Adda-Baaj/samvad-headlines/internal/domain"
)

type keywordSet struct {
	category domain.Category
	keywords []string
}

// rules is checked top to bottom; the first set with any hit wins.
var rules = []keywordSet{
	{domain.CategoryBusiness, []string{
		"business", "market", "economy", "finance", "stock", "investment", "banking", "trading",
		"wall street", "earnings", "revenue", "profit", "ceo", "company", "corporate",
	}},
	{domain.CategoryTechnology, []string{
		"tech", "ai", "artificial intelligence", "software", "digital", "computer", "internet",
		"social media", "app", "startup", "innovation", "cyber", "data", "algorithm", "platform",
	}},
	{domain.CategorySports, []string{
		"sport", "football", "basketball", "tennis", "olympic", "baseball", "soccer", "golf",
		"hockey", "championship", "league", "team", "player", "coach", "game",
	}},
	{domain.CategoryEntertainment, []string{
		"movie", "film", "entertainment", "celebrity", "music", "actor", "actress", "director",
		"award", "concert", "album", "show", "tv", "television", "streaming",
	}},
	{domain.CategoryHealth, []string{
		"health", "medical", "covid", "vaccine", "treatment", "hospital", "doctor", "patient",
		"disease", "medicine", "therapy", "clinic", "surgery", "drug", "pharmaceutical",
	}},
	{domain.CategoryScience, []string{
		"science", "research", "study", "discovery", "climate", "environment", "space", "nasa",
		"university", "experiment", "laboratory", "scientist", "innovation", "breakthrough", "analysis",
	}},
}

// Categorize returns the category for the given title and description.
// Matching is a case-insensitive substring test, so short keywords such as "ai" also hit inside longer words.
func Categorize(title, description string) domain.Category {
	content := strings.ToLower(title + " " + description)
	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(content, kw) {
				return rule.category
			}
		}
	}
	return domain.CategoryGeneral
}

// Keywords returns a copy of the keyword list for a category. General has none.
func Keywords(c domain.Category) []string {
	for _, rule := range rules {
		if rule.category == c {
			out := make([]string, len(rule.keywords))
			copy(out, rule.keywords)
			return out
		}
	}
	return nil
}
