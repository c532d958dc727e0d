package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/slowdive42/news2alpha/pkg/models"
	"github.com/slowdive42/news2alpha/pkg/utils"
)

// RSS fetches articles from one or more RSS/Atom feeds.
type RSS struct {
	client *Client
	feeds  []string
	parser *gofeed.Parser
}

// NewRSS creates an RSS fetcher over the given feed URLs.
func NewRSS(client *Client, feeds []string) *RSS {
	return &RSS{
		client: client,
		feeds:  feeds,
		parser: gofeed.NewParser(),
	}
}

// Name returns the source name.
func (r *RSS) Name() string { return SourceRSS }

// FetchNews reads every feed and keeps dated items inside [q.From, q.To]
// whose title or description mentions the query. A failing feed fails the
// fetch.
func (r *RSS) FetchNews(ctx context.Context, q NewsQuery) ([]models.RawArticle, error) {
	var articles []models.RawArticle
	for _, feedURL := range r.feeds {
		items, err := r.fetchFeed(ctx, feedURL)
		if err != nil {
			return nil, err
		}
		for _, a := range items {
			t, err := utils.ParseTimestamp(a.PublishedAt)
			if err != nil || !inRange(t, q.From, q.To) {
				continue
			}
			if !matchesQuery(a.Title+" "+a.Description, q.Query) {
				continue
			}
			articles = append(articles, a)
		}
	}
	return finalizeArticles(articles), nil
}

// fetchFeed downloads a feed through the shared client and parses it.
// Items without a publish or update date are dropped.
func (r *RSS) fetchFeed(ctx context.Context, feedURL string) ([]models.RawArticle, error) {
	body, err := r.client.get(ctx, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", feedURL, err)
	}
	defer body.Close()

	feed, err := r.parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	articles := make([]models.RawArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		published := itemTime(item)
		if published.IsZero() {
			continue
		}
		articles = append(articles, models.RawArticle{
			Source:      SourceRSS,
			SourceName:  feed.Title,
			Title:       item.Title,
			Description: item.Description,
			Content:     item.Content,
			URL:         item.Link,
			PublishedAt: utils.FormatTimestamp(published),
		})
	}
	return articles, nil
}

func itemTime(item *gofeed.Item) time.Time {
	switch {
	case item.PublishedParsed != nil:
		return *item.PublishedParsed
	case item.UpdatedParsed != nil:
		return *item.UpdatedParsed
	}
	return time.Time{}
}
