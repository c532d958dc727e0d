// Package aligner turns per-article sentiment observations into a daily
// series and joins it onto a market bar series.
//
// The market table drives the output: every bar yields exactly one output
// row, in input order, carrying all of its columns plus sentiment_mean and
// news_count. Days with no articles get 0.0 and 0. Days that only have news
// are dropped. Timestamps are normalized to UTC before grouping, naive
// timestamps being taken as UTC.
package aligner

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/slowdive42/news2alpha/internal/tabular"
	"github.com/slowdive42/news2alpha/pkg/models"
	"github.com/slowdive42/news2alpha/pkg/utils"
)

// Options names the columns the aligner reads.
type Options struct {
	// ArticleTimeColumns are candidate names for the article publish time;
	// the first one present in the table is used.
	ArticleTimeColumns []string
	ScoreColumn        string
	MarketTimeColumn   string
	// PriceColumns must exist in the market table and hold numbers.
	PriceColumns []string
}

// DefaultOptions returns the column names produced by the feature and
// market stages of this module.
func DefaultOptions() Options {
	return Options{
		ArticleTimeColumns: []string{models.ColPublishedAt, "publishedAt"},
		ScoreColumn:        models.ColSentimentScore,
		MarketTimeColumn:   "Date",
		PriceColumns:       []string{"Open", "High", "Low", "Close", "Volume"},
	}
}

// Stats describes one alignment.
type Stats struct {
	MarketRows        int
	Articles          int
	NewsDays          int // days with at least one article
	MatchedDays       int // market rows that received news
	UnmatchedNewsDays int // news days with no market bar, dropped
}

// Aligner joins article features onto market bars. It keeps no state
// between calls and is safe for concurrent use.
type Aligner struct {
	opts Options
	log  zerolog.Logger
}

// New creates an Aligner. Empty option fields fall back to DefaultOptions.
func New(opts Options, log zerolog.Logger) *Aligner {
	def := DefaultOptions()
	if len(opts.ArticleTimeColumns) == 0 {
		opts.ArticleTimeColumns = def.ArticleTimeColumns
	}
	if opts.ScoreColumn == "" {
		opts.ScoreColumn = def.ScoreColumn
	}
	if opts.MarketTimeColumn == "" {
		opts.MarketTimeColumn = def.MarketTimeColumn
	}
	if opts.PriceColumns == nil {
		opts.PriceColumns = def.PriceColumns
	}
	return &Aligner{opts: opts, log: log.With().Str("component", "aligner").Logger()}
}

// AlignFiles reads the feature and market CSV files, aligns them and
// atomically writes the result to outputPath. Nothing is written on error.
func (a *Aligner) AlignFiles(featuresPath, marketPath, outputPath string) (Stats, error) {
	articles, err := tabular.ReadFile(featuresPath)
	if err != nil {
		return Stats{}, err
	}
	market, err := tabular.ReadFile(marketPath)
	if err != nil {
		return Stats{}, err
	}

	out, stats, err := a.Align(articles, market)
	if err != nil {
		return stats, err
	}
	if err := out.WriteFile(outputPath); err != nil {
		return stats, err
	}

	a.log.Info().
		Str("output", outputPath).
		Int("rows", stats.MarketRows).
		Int("articles", stats.Articles).
		Int("matched_days", stats.MatchedDays).
		Msg("aligned features with market data")
	return stats, nil
}

// Align joins the article feature table onto the market table.
func (a *Aligner) Align(articles, market *tabular.Table) (*tabular.Table, Stats, error) {
	features, err := a.ReadArticles(articles)
	if err != nil {
		return nil, Stats{}, err
	}
	timeCol, bars, err := a.readMarket(market)
	if err != nil {
		return nil, Stats{}, err
	}

	aggs := Aggregate(features)
	joined := Join(bars, aggs)

	stats := Stats{
		MarketRows:        len(bars),
		Articles:          len(features),
		NewsDays:          len(aggs),
		UnmatchedNewsDays: unmatchedDays(bars, aggs),
	}

	out := tabular.New(market.Name, market.Header...)
	out.Header = append(out.Header, models.ColSentimentMean, models.ColNewsCount)
	out.Rows = make([][]string, 0, len(market.Rows))
	for i, row := range market.Rows {
		rec := make([]string, 0, len(out.Header))
		rec = append(rec, row...)
		rec[timeCol] = utils.FormatTimestamp(bars[i])
		rec = append(rec,
			strconv.FormatFloat(joined[i].SentimentMean, 'f', -1, 64),
			strconv.Itoa(joined[i].NewsCount),
		)
		if joined[i].NewsCount > 0 {
			stats.MatchedDays++
		}
		out.Rows = append(out.Rows, rec)
	}

	if stats.Articles == 0 {
		a.log.Warn().Str("file", articles.Name).Msg("article table is empty; sentiment columns default to zero")
	}
	if stats.MarketRows == 0 {
		a.log.Warn().Str("file", market.Name).Msg("market table is empty; output has no rows")
	}
	if stats.UnmatchedNewsDays > 0 {
		a.log.Debug().Int("days", stats.UnmatchedNewsDays).Msg("dropped news days without a market bar")
	}
	return out, stats, nil
}

// ReadArticles extracts normalized article features from a feature table.
// A table with neither header nor rows is treated as empty.
func (a *Aligner) ReadArticles(t *tabular.Table) ([]models.ArticleFeature, error) {
	if len(t.Header) == 0 && t.Len() == 0 {
		return nil, nil
	}

	timeCol := -1
	for _, name := range a.opts.ArticleTimeColumns {
		if i := t.IndexFold(name); i >= 0 {
			timeCol = i
			break
		}
	}
	scoreCol := t.IndexFold(a.opts.ScoreColumn)

	var missing []string
	if timeCol < 0 {
		missing = append(missing, a.opts.ArticleTimeColumns[0])
	}
	if scoreCol < 0 {
		missing = append(missing, a.opts.ScoreColumn)
	}
	if len(missing) > 0 {
		return nil, &SchemaError{File: t.Name, Missing: missing}
	}

	times, err := normalizeTimestamps(t, timeCol)
	if err != nil {
		return nil, err
	}
	scores, err := parseScores(t, scoreCol)
	if err != nil {
		return nil, err
	}

	out := make([]models.ArticleFeature, len(times))
	for i := range times {
		out[i] = models.ArticleFeature{PublishedAt: times[i], SentimentScore: scores[i]}
	}
	return out, nil
}

// readMarket validates the market table and returns the position of its
// time column and the normalized bar times in row order.
func (a *Aligner) readMarket(t *tabular.Table) (int, []time.Time, error) {
	required := append([]string{a.opts.MarketTimeColumn}, a.opts.PriceColumns...)
	found, missing := t.Lookup(required...)

	var conflicting []string
	for _, c := range []string{models.ColSentimentMean, models.ColNewsCount} {
		if t.IndexFold(c) >= 0 {
			conflicting = append(conflicting, c)
		}
	}
	if len(missing) > 0 || len(conflicting) > 0 {
		return 0, nil, &SchemaError{File: t.Name, Missing: missing, Conflicting: conflicting}
	}

	timeCol := found[a.opts.MarketTimeColumn]
	bars, err := normalizeTimestamps(t, timeCol)
	if err != nil {
		return 0, nil, err
	}
	for _, c := range a.opts.PriceColumns {
		if err := checkNumeric(t, found[c]); err != nil {
			return 0, nil, err
		}
	}
	if err := checkUniqueDays(t.Name, bars); err != nil {
		return 0, nil, err
	}
	return timeCol, bars, nil
}

// String implements fmt.Stringer for log output.
func (s Stats) String() string {
	return fmt.Sprintf("rows=%d articles=%d news_days=%d matched=%d dropped_news_days=%d",
		s.MarketRows, s.Articles, s.NewsDays, s.MatchedDays, s.UnmatchedNewsDays)
}
