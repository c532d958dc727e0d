package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/slowdive42/news2alpha/pkg/models"
	"github.com/slowdive42/news2alpha/pkg/utils"
)

// DefaultNewsAPIBaseURL is the production NewsAPI endpoint.
const DefaultNewsAPIBaseURL = "https://newsapi.org"

const newsAPIPageSize = 100

// NewsAPI fetches articles from the NewsAPI /v2/everything endpoint.
type NewsAPI struct {
	client   *Client
	apiKey   string
	baseURL  string
	maxPages int
}

// NewNewsAPI creates a NewsAPI fetcher. An empty baseURL selects the
// production endpoint; maxPages <= 0 means one page.
func NewNewsAPI(client *Client, apiKey, baseURL string, maxPages int) *NewsAPI {
	if baseURL == "" {
		baseURL = DefaultNewsAPIBaseURL
	}
	if maxPages <= 0 {
		maxPages = 1
	}
	return &NewsAPI{
		client:   client,
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxPages: maxPages,
	}
}

// Name returns the source name.
func (n *NewsAPI) Name() string { return SourceNewsAPI }

type newsAPIResponse struct {
	Status       string           `json:"status"`
	Code         string           `json:"code"`
	Message      string           `json:"message"`
	TotalResults int              `json:"totalResults"`
	Articles     []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

// FetchNews pages through /v2/everything until totalResults is reached, a
// page comes back empty, or the page limit is hit.
func (n *NewsAPI) FetchNews(ctx context.Context, q NewsQuery) ([]models.RawArticle, error) {
	headers := map[string]string{"X-Api-Key": n.apiKey}

	var articles []models.RawArticle
	for page := 1; page <= n.maxPages; page++ {
		var resp newsAPIResponse
		err := n.client.getJSON(ctx, n.pageURL(q, page), headers, &resp)
		if err != nil {
			// Free plans stop at the first page with 426 maximumResultsReached.
			var httpErr *ErrHTTP
			if page > 1 && errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusUpgradeRequired {
				break
			}
			return nil, fmt.Errorf("newsapi page %d: %w", page, err)
		}
		if resp.Status != "ok" {
			return nil, fmt.Errorf("newsapi page %d: %s: %s", page, resp.Code, resp.Message)
		}
		if len(resp.Articles) == 0 {
			break
		}

		for _, a := range resp.Articles {
			articles = append(articles, models.RawArticle{
				Source:      SourceNewsAPI,
				SourceName:  a.Source.Name,
				Title:       a.Title,
				Description: a.Description,
				Content:     a.Content,
				URL:         a.URL,
				PublishedAt: a.PublishedAt,
			})
		}
		if page*newsAPIPageSize >= resp.TotalResults {
			break
		}
	}

	return finalizeArticles(articles), nil
}

func (n *NewsAPI) pageURL(q NewsQuery, page int) string {
	v := url.Values{}
	v.Set("q", q.Query)
	if !q.From.IsZero() {
		v.Set("from", q.From.UTC().Format(utils.DateLayout))
	}
	if !q.To.IsZero() {
		v.Set("to", q.To.UTC().Format(utils.DateLayout))
	}
	v.Set("language", "en")
	v.Set("sortBy", "publishedAt")
	v.Set("pageSize", strconv.Itoa(newsAPIPageSize))
	v.Set("page", strconv.Itoa(page))
	return n.baseURL + "/v2/everything?" + v.Encode()
}
