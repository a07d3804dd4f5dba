package presentation

import (
	"time"

	"github.com/Adda-Baaj/samvad-headlines/internal/domain"
)

type mockEntry struct {
	title       string
	description string
	slug        string
	photo       string
	source      string
	daysAgo     int
	category    domain.Category
}

var mockEntries = []mockEntry{
	{"AI Breakthrough: New Model Achieves Human-Level Understanding", "Researchers have developed a new artificial intelligence model that demonstrates unprecedented understanding of complex human language patterns and reasoning abilities.", "ai-breakthrough", "photo-1677442136019-21780ecad995", "Tech Daily", 0, domain.CategoryTechnology},
	{"Global Markets React to New Economic Policy Changes", "Major stock markets worldwide showed significant movement following the announcement of new economic policies aimed at stabilizing inflation and promoting growth.", "market-reaction", "photo-1611974789855-9c2a0a7236a3", "Business Weekly", 1, domain.CategoryBusiness},
	{"Championship Finals: Underdog Team Makes Historic Victory", "In an unexpected turn of events, the underdog team secured a historic victory in the championship finals, marking their first title in over two decades.", "championship-victory", "photo-1571019613454-1cb2f99b2d8b", "Sports Central", 0, domain.CategorySports},
	{"New Streaming Service Launches with Exclusive Content", "A major entertainment company has launched a new streaming platform featuring exclusive original content and classic favorites from their extensive library.", "streaming-launch", "photo-1598899134739-24c46f58b8c0", "Entertainment Now", 1, domain.CategoryEntertainment},
	{"Breakthrough in Cancer Treatment Shows Promising Results", "Medical researchers have announced a breakthrough in cancer treatment that has shown promising results in early clinical trials, offering hope for patients worldwide.", "cancer-breakthrough", "photo-1576091160399-112ba8d25d1f", "Health Journal", 2, domain.CategoryHealth},
	{"Space Mission Discovers Evidence of Water on Mars", "NASA's latest Mars mission has discovered compelling evidence of water presence, potentially supporting theories about the planet's ability to sustain life.", "mars-water-discovery", "photo-1614730321146-b6fa6a46bcb4", "Science Daily", 0, domain.CategoryScience},
	{"Tech Giant Announces Revolutionary Smartphone Features", "A leading technology company has unveiled its latest smartphone with revolutionary features including advanced AI capabilities and enhanced security measures.", "smartphone-announcement", "photo-1511707171634-5f897ff02aa9", "Tech Review", 1, domain.CategoryTechnology},
	{"Renewable Energy Investment Reaches Record High", "Global investment in renewable energy has reached an all-time high, with solar and wind power leading the transition to sustainable energy sources.", "renewable-energy-investment", "photo-1509391366360-2e959784a276", "Green Business", 2, domain.CategoryBusiness},
	{"Major Climate Summit Addresses Global Warming Crisis", "World leaders gathered at the annual climate summit to discuss urgent measures needed to combat global warming and reduce carbon emissions worldwide.", "climate-summit", "photo-1569163137390-2108bdb5ed3c", "Global News", 0, domain.CategoryScience},
	{"Revolutionary Electric Vehicle Sets New Speed Record", "A new electric vehicle has shattered previous speed records, demonstrating the rapid advancement of electric vehicle technology and performance capabilities.", "electric-vehicle-record", "photo-1552519507-da3b142c6e3d", "Auto Weekly", 1, domain.CategoryTechnology},
	{"Mental Health Awareness Campaign Reaches Millions", "A groundbreaking mental health awareness campaign has successfully reached millions of people, promoting understanding and support for mental health issues.", "mental-health-campaign", "photo-1559757148-5c350d0d3c56", "Health Today", 0, domain.CategoryHealth},
	{"Blockbuster Movie Breaks Box Office Records", "The highly anticipated blockbuster movie has shattered box office records, becoming the highest-grossing film of the year within its opening weekend.", "blockbuster-success", "photo-1489599849927-2ee91cede3ba", "Cinema News", 1, domain.CategoryEntertainment},
}

// MockArticles returns the demo batch shown when every source failed. Dates are relative to now.
// Categories are fixed per entry rather than derived from the text.
func MockArticles(now time.Time) []domain.Article {
	out := make([]domain.Article, 0, len(mockEntries))
	for i, e := range mockEntries {
		out = append(out, domain.Article{
			ID:          i + 1,
			Title:       e.title,
			Description: e.description,
			URL:         "https://example.com/" + e.slug,
			ImageURL:    "https://images.unsplash.com/" + e.photo + "?w=400&h=300&fit=crop",
			SourceName:  e.source,
			PublishedAt: now.AddDate(0, 0, -e.daysAgo),
			Category:    e.category,
		})
	}
	return out
}
