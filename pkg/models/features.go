package models

import "time"

// Entity is a named entity found in article text.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"` // CRYPTO, ORG, PERSON, GPE, MONEY, PERCENT
}

// ArticleFeature is the per-article input of the aligner.
type ArticleFeature struct {
	PublishedAt    time.Time `json:"published_at"` // UTC
	SentimentScore float64   `json:"sentiment_score"`
}

// DailyAggregate summarizes the articles of one UTC calendar day.
// Only days with at least one article are represented.
type DailyAggregate struct {
	Date          time.Time `json:"date"` // UTC midnight
	SentimentMean float64   `json:"sentiment_mean"`
	NewsCount     int       `json:"news_count"`
}

// Column names shared by the feature and aligned tables.
const (
	ColPublishedAt    = "published_at"
	ColSentimentScore = "sentiment_score"
	ColEntities       = "entities"
	ColSentimentMean  = "sentiment_mean"
	ColNewsCount      = "news_count"
)

// FeatureColumns is the header of the per-article feature table.
var FeatureColumns = append(append([]string{}, CleanedColumns...), ColSentimentScore, ColEntities)
