package models

import "time"

// RawArticle is a news item as delivered by a news source, before cleaning.
// PublishedAt is kept as the source's own string so that timestamp
// normalization happens in exactly one place downstream.
type RawArticle struct {
	ID          string `json:"id"`
	Source      string `json:"source"`                // fetcher name: "newsapi", "cryptopanic", "rss"
	SourceName  string `json:"source_name,omitempty"` // publisher, e.g. "CoinDesk"
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content,omitempty"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"`
}

// RawNewsDump is the document persisted by the news fetch stage.
type RawNewsDump struct {
	Source    string       `json:"source"`
	Query     string       `json:"query"`
	From      string       `json:"from"`
	To        string       `json:"to"`
	FetchedAt time.Time    `json:"fetched_at"`
	Articles  []RawArticle `json:"articles"`
}

// CleanArticle is a news item after text normalization.
type CleanArticle struct {
	PublishedAt    string `json:"published_at"`
	Title          string `json:"title"`
	TitleCleaned   string `json:"title_cleaned"`
	Content        string `json:"content"`
	ContentCleaned string `json:"content_cleaned"`
	URL            string `json:"url"`
}

// CleanedColumns is the header of the cleaned news table.
var CleanedColumns = []string{
	"published_at", "title", "title_cleaned", "content", "content_cleaned", "url",
}
