package datasource

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"

	readability "github.com/go-shiori/go-readability"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/slowdive42/news2alpha/pkg/models"
)

// Enricher fills in article bodies for articles whose API payload carries
// little or no text, using the readable content of the linked page.
type Enricher struct {
	client      *Client
	minLength   int
	concurrency int
	log         zerolog.Logger
}

// NewEnricher creates an Enricher. Articles whose description and content
// are both shorter than minLength are enriched, at most concurrency at a
// time.
func NewEnricher(client *Client, minLength, concurrency int, log zerolog.Logger) *Enricher {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Enricher{
		client:      client,
		minLength:   minLength,
		concurrency: concurrency,
		log:         log,
	}
}

// Enrich updates articles in place and returns how many gained content.
// Page failures are logged and skipped; only context cancellation is an
// error.
func (e *Enricher) Enrich(ctx context.Context, articles []models.RawArticle) (int, error) {
	var enriched atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i := range articles {
		a := &articles[i]
		if !e.needsContent(*a) {
			continue
		}
		g.Go(func() error {
			text, err := e.pageText(gctx, a.URL)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				e.log.Debug().Err(err).Str("url", a.URL).Msg("enrichment skipped")
				return nil
			}
			if text == "" {
				return nil
			}
			a.Content = text
			enriched.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(enriched.Load()), err
	}
	return int(enriched.Load()), nil
}

func (e *Enricher) needsContent(a models.RawArticle) bool {
	if a.URL == "" {
		return false
	}
	return len(strings.TrimSpace(a.Description)) < e.minLength &&
		len(strings.TrimSpace(a.Content)) < e.minLength
}

// pageText downloads pageURL through the shared client and extracts its
// readable text.
func (e *Enricher) pageText(ctx context.Context, pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	body, err := e.client.get(ctx, pageURL, map[string]string{"Accept": "text/html"})
	if err != nil {
		return "", err
	}
	defer body.Close()

	article, err := readability.FromReader(body, u)
	if err != nil {
		return "", fmt.Errorf("readability %s: %w", pageURL, err)
	}
	return strings.TrimSpace(article.TextContent), nil
}
