package datasource

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/slowdive42/news2alpha/pkg/models"
	"github.com/slowdive42/news2alpha/pkg/utils"
)

// Supported news source names.
const (
	SourceNewsAPI     = "newsapi"
	SourceCryptoPanic = "cryptopanic"
	SourceRSS         = "rss"
)

// NewsQuery selects the articles a NewsFetcher returns. From and To are
// calendar days in UTC; To is inclusive.
type NewsQuery struct {
	Query      string
	From       time.Time
	To         time.Time
	Currencies string
}

// NewsFetcher retrieves raw articles from one news source.
type NewsFetcher interface {
	Name() string
	FetchNews(ctx context.Context, q NewsQuery) ([]models.RawArticle, error)
}

// NewsConfig configures a news fetcher built by NewNewsFetcher.
type NewsConfig struct {
	Source   string
	APIKey   string
	BaseURL  string
	Feeds    []string
	MaxPages int
}

// NewNewsFetcher builds the fetcher for cfg.Source.
func NewNewsFetcher(client *Client, cfg NewsConfig) (NewsFetcher, error) {
	switch strings.ToLower(cfg.Source) {
	case SourceNewsAPI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s: %w", SourceNewsAPI, ErrMissingAPIKey)
		}
		return NewNewsAPI(client, cfg.APIKey, cfg.BaseURL, cfg.MaxPages), nil
	case SourceCryptoPanic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s: %w", SourceCryptoPanic, ErrMissingAPIKey)
		}
		return NewCryptoPanic(client, cfg.APIKey, cfg.BaseURL, cfg.MaxPages), nil
	case SourceRSS:
		if len(cfg.Feeds) == 0 {
			return nil, fmt.Errorf("%s: no feeds configured", SourceRSS)
		}
		return NewRSS(client, cfg.Feeds), nil
	default:
		return nil, fmt.Errorf("%q: %w", cfg.Source, ErrUnknownSource)
	}
}

// --- Internal helpers ---

// articleID derives a stable id from the article URL, or from title and
// publish time when the URL is missing.
func articleID(a models.RawArticle) string {
	name := a.URL
	if name == "" {
		name = a.Title + "|" + a.PublishedAt
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// finalizeArticles assigns ids, drops duplicates and sorts by publish time
// ascending. Articles with unparsable timestamps keep their relative order
// after the dated ones.
func finalizeArticles(in []models.RawArticle) []models.RawArticle {
	seen := make(map[string]bool, len(in))
	out := make([]models.RawArticle, 0, len(in))
	for _, a := range in {
		if a.ID == "" {
			a.ID = articleID(a)
		}
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		out = append(out, a)
	}

	keys := make([]time.Time, len(out))
	dated := make([]bool, len(out))
	for i, a := range out {
		if t, err := utils.ParseTimestamp(a.PublishedAt); err == nil {
			keys[i], dated[i] = t, true
		}
	}
	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := idx[i], idx[j]
		if dated[a] != dated[b] {
			return dated[a]
		}
		return keys[a].Before(keys[b])
	})
	sorted := make([]models.RawArticle, len(out))
	for i, k := range idx {
		sorted[i] = out[k]
	}
	return sorted
}

// inRange reports whether t falls on a day within [from, to].
func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(utils.StartOfDayUTC(from)) {
		return false
	}
	if !to.IsZero() && t.After(utils.EndOfDayUTC(to)) {
		return false
	}
	return true
}

// matchesQuery checks whether text mentions any word of query
// (case-insensitive). An empty query matches everything.
func matchesQuery(text, query string) bool {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, w := range words {
		if w == "or" || w == "and" {
			continue
		}
		if strings.Contains(lower, strings.Trim(w, `"()`)) {
			return true
		}
	}
	return false
}
