package datasource

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/slowdive42/news2alpha/pkg/models"
	"github.com/slowdive42/news2alpha/pkg/utils"
)

// DefaultCryptoPanicBaseURL is the production CryptoPanic endpoint.
const DefaultCryptoPanicBaseURL = "https://cryptopanic.com"

// CryptoPanic fetches news posts from the CryptoPanic posts API.
type CryptoPanic struct {
	client   *Client
	token    string
	baseURL  string
	maxPages int
}

// NewCryptoPanic creates a CryptoPanic fetcher. An empty baseURL selects
// the production endpoint; maxPages <= 0 means one page.
func NewCryptoPanic(client *Client, token, baseURL string, maxPages int) *CryptoPanic {
	if baseURL == "" {
		baseURL = DefaultCryptoPanicBaseURL
	}
	if maxPages <= 0 {
		maxPages = 1
	}
	return &CryptoPanic{
		client:   client,
		token:    token,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxPages: maxPages,
	}
}

// Name returns the source name.
func (c *CryptoPanic) Name() string { return SourceCryptoPanic }

type cryptoPanicResponse struct {
	Count   int               `json:"count"`
	Next    *string           `json:"next"`
	Results []cryptoPanicPost `json:"results"`
}

type cryptoPanicPost struct {
	Kind   string `json:"kind"`
	Domain string `json:"domain"`
	Source struct {
		Title  string `json:"title"`
		Domain string `json:"domain"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	PublishedAt string `json:"published_at"`
	URL         string `json:"url"`
}

// FetchNews follows next links up to the page limit and keeps posts
// published inside [q.From, q.To]. Posts arrive newest first, so paging
// stops once a whole page predates q.From.
func (c *CryptoPanic) FetchNews(ctx context.Context, q NewsQuery) ([]models.RawArticle, error) {
	next := c.firstURL(q)

	var articles []models.RawArticle
	for page := 1; page <= c.maxPages && next != ""; page++ {
		var resp cryptoPanicResponse
		if err := c.client.getJSON(ctx, next, nil, &resp); err != nil {
			return nil, fmt.Errorf("cryptopanic page %d: %w", page, err)
		}

		older := 0
		for _, p := range resp.Results {
			t, err := utils.ParseTimestamp(p.PublishedAt)
			if err != nil {
				return nil, fmt.Errorf("cryptopanic post %q: %w", p.Title, err)
			}
			if !q.From.IsZero() && t.Before(utils.StartOfDayUTC(q.From)) {
				older++
				continue
			}
			if !inRange(t, q.From, q.To) {
				continue
			}
			name := p.Source.Title
			if name == "" {
				name = p.Domain
			}
			articles = append(articles, models.RawArticle{
				Source:      SourceCryptoPanic,
				SourceName:  name,
				Title:       p.Title,
				Description: p.Description,
				URL:         p.URL,
				PublishedAt: utils.FormatTimestamp(t),
			})
		}

		if len(resp.Results) == 0 || older == len(resp.Results) {
			break
		}
		next = ""
		if resp.Next != nil {
			next = *resp.Next
		}
	}

	return finalizeArticles(articles), nil
}

func (c *CryptoPanic) firstURL(q NewsQuery) string {
	currencies := q.Currencies
	if currencies == "" {
		currencies = "BTC"
	}
	v := url.Values{}
	v.Set("auth_token", c.token)
	v.Set("filter", "news")
	v.Set("currencies", currencies)
	v.Set("public", "true")
	return c.baseURL + "/api/v1/posts/?" + v.Encode()
}
