// Package pipeline drives the news2alpha stages: fetch news and market
// bars, clean, extract features, align, then report and export.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/slowdive42/news2alpha/internal/aligner"
	"github.com/slowdive42/news2alpha/internal/analysis/sentiment"
	"github.com/slowdive42/news2alpha/internal/config"
	"github.com/slowdive42/news2alpha/internal/datasource"
	"github.com/slowdive42/news2alpha/internal/features"
	"github.com/slowdive42/news2alpha/internal/metrics"
	"github.com/slowdive42/news2alpha/internal/report"
	"github.com/slowdive42/news2alpha/internal/store"
	"github.com/slowdive42/news2alpha/internal/tabular"
	"github.com/slowdive42/news2alpha/internal/trace"
	"github.com/slowdive42/news2alpha/pkg/models"
)

// Stage names used in logs, spans, metrics and the manifest.
const (
	StageFetchNews   = "fetch_news"
	StageFetchMarket = "fetch_market"
	StageClean       = "clean"
	StageFeatures    = "features"
	StageAlign       = "align"
	StageReport      = "report"
	StageExport      = "export"
)

// Pipeline runs the stages for one configuration. Each Pipeline has its
// own run id and metrics registry.
type Pipeline struct {
	cfg     *config.Config
	paths   Paths
	runID   string
	log     zerolog.Logger
	metrics *metrics.Recorder

	mu       sync.Mutex
	counts   Counts
	stages   []StageResult
	pdfPath  string
	reported bool
}

// New validates cfg and creates a Pipeline.
func New(cfg *config.Config, log zerolog.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	return &Pipeline{
		cfg:     cfg,
		paths:   NewPaths(cfg),
		runID:   runID,
		log:     log.With().Str("run_id", runID).Logger(),
		metrics: metrics.New(),
	}, nil
}

// RunID returns the id carried in logs, spans, the manifest and store rows.
func (p *Pipeline) RunID() string { return p.runID }

// Paths returns the file layout of this run.
func (p *Pipeline) Paths() Paths { return p.paths }

// ════════════════════════════════════════════════════════════════════
// Full run
// ════════════════════════════════════════════════════════════════════

// Run executes every stage. News and market data are fetched
// concurrently; the remaining stages run in order. The manifest and the
// metrics textfile are written whether or not the run succeeds.
func (p *Pipeline) Run(ctx context.Context) (*Manifest, error) {
	started := time.Now().UTC()
	ctx, span := trace.StartSpan(ctx, "pipeline.run",
		attribute.String("run_id", p.runID),
		attribute.String("symbol", p.cfg.Market.Symbol),
	)
	traceID, _ := trace.TraceID(ctx)
	if traceID != "" {
		p.log = p.log.With().Str("trace_id", traceID).Logger()
	}

	p.log.Info().
		Str("source", p.cfg.News.Source).
		Str("symbol", p.cfg.Market.Symbol).
		Str("from", p.cfg.News.FromDate).
		Str("to", p.cfg.News.ToDate).
		Msg("pipeline started")

	err := p.run(ctx)
	trace.End(span, err)

	m := p.manifest(started, err)
	m.TraceID = traceID
	if werr := WriteManifest(p.paths.Manifest, m); werr != nil {
		p.log.Error().Err(werr).Str("path", p.paths.Manifest).Msg("write manifest")
		err = errors.Join(err, werr)
	}
	if err == nil {
		p.metrics.MarkSuccess(m.FinishedAt)
	}
	if werr := p.writeMetrics(); werr != nil {
		err = errors.Join(err, werr)
	}

	if err != nil {
		p.log.Error().Err(err).Dur("duration", m.FinishedAt.Sub(started)).Msg("pipeline failed")
		return m, err
	}
	p.log.Info().
		Dur("duration", m.FinishedAt.Sub(started)).
		Int("rows", m.Counts.AlignedRows).
		Str("path", p.paths.Final).
		Msg("pipeline finished")
	return m, nil
}

func (p *Pipeline) run(ctx context.Context) error {
	if err := p.paths.MakeDirs(); err != nil {
		return err
	}

	client := p.newClient()
	defer client.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.fetchNews(gctx, client) })
	g.Go(func() error { return p.fetchMarket(gctx, client) })
	if err := g.Wait(); err != nil {
		return err
	}

	if _, err := p.Clean(ctx); err != nil {
		return err
	}
	if _, err := p.Features(ctx); err != nil {
		return err
	}
	if _, err := p.Align(ctx); err != nil {
		return err
	}
	if p.cfg.Report.Enabled {
		if err := p.Plot(ctx, p.cfg.Report.PDF); err != nil {
			return err
		}
	}
	if p.cfg.Store.Enabled {
		if _, err := p.Export(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ════════════════════════════════════════════════════════════════════
// Stages
// ════════════════════════════════════════════════════════════════════

// FetchNews downloads articles and writes the raw news dump.
func (p *Pipeline) FetchNews(ctx context.Context) (int, error) {
	if err := p.paths.MakeDirs(); err != nil {
		return 0, err
	}
	client := p.newClient()
	defer client.Close()
	if err := p.fetchNews(ctx, client); err != nil {
		return 0, err
	}
	return p.Counts().Articles, nil
}

func (p *Pipeline) fetchNews(ctx context.Context, client *datasource.Client) error {
	return p.stage(ctx, StageFetchNews, func(ctx context.Context, log zerolog.Logger) error {
		fetcher, err := datasource.NewNewsFetcher(client, datasource.NewsConfig{
			Source:   p.cfg.News.Source,
			APIKey:   p.cfg.SourceKey(),
			BaseURL:  p.newsBaseURL(),
			Feeds:    p.cfg.News.Feeds,
			MaxPages: p.cfg.News.MaxPages,
		})
		if err != nil {
			return err
		}

		articles, err := fetcher.FetchNews(ctx, datasource.NewsQuery{
			Query:      p.cfg.News.Query,
			From:       p.cfg.From(),
			To:         p.cfg.To(),
			Currencies: p.cfg.News.Currencies,
		})
		if err != nil {
			return fmt.Errorf("fetch news from %s: %w", fetcher.Name(), err)
		}
		p.metrics.AddArticlesFetched(fetcher.Name(), len(articles))
		log.Info().Int("articles", len(articles)).Str("source", fetcher.Name()).Msg("news fetched")

		enriched := 0
		if p.cfg.News.EnrichContent && len(articles) > 0 {
			enricher := datasource.NewEnricher(client, p.cfg.News.MinContentLength, p.cfg.News.EnrichConcurrency, log)
			enriched, err = enricher.Enrich(ctx, articles)
			if err != nil {
				return err
			}
			p.metrics.AddArticlesEnriched(enriched)
		}

		dump := &models.RawNewsDump{
			Source:    fetcher.Name(),
			Query:     p.cfg.News.Query,
			From:      p.cfg.News.FromDate,
			To:        p.cfg.News.ToDate,
			FetchedAt: time.Now().UTC(),
			Articles:  articles,
		}
		if err := features.SaveRawNews(p.paths.RawNews, dump); err != nil {
			return err
		}

		p.updateCounts(func(c *Counts) {
			c.Articles = len(articles)
			c.Enriched = enriched
		})
		log.Info().Str("path", p.paths.RawNews).Int("enriched", enriched).Msg("raw news saved")
		return nil
	})
}

// FetchMarket downloads market bars and writes the market CSV.
func (p *Pipeline) FetchMarket(ctx context.Context) (int, error) {
	if err := p.paths.MakeDirs(); err != nil {
		return 0, err
	}
	client := p.newClient()
	defer client.Close()
	if err := p.fetchMarket(ctx, client); err != nil {
		return 0, err
	}
	return p.Counts().Bars, nil
}

func (p *Pipeline) fetchMarket(ctx context.Context, client *datasource.Client) error {
	return p.stage(ctx, StageFetchMarket, func(ctx context.Context, log zerolog.Logger) error {
		var fetcher datasource.MarketFetcher = datasource.NewBinance(client, p.cfg.HTTP.BinanceBaseURL)
		bars, err := fetcher.FetchBars(ctx, datasource.MarketQuery{
			Symbol:   p.cfg.Market.Symbol,
			Interval: models.Interval(p.cfg.Market.Interval),
			From:     p.cfg.From(),
			To:       p.cfg.To(),
		})
		if err != nil {
			return fmt.Errorf("fetch %s bars from %s: %w", p.cfg.Market.Symbol, fetcher.Name(), err)
		}
		p.metrics.AddBarsFetched(p.cfg.Market.Symbol, len(bars))

		if err := datasource.WriteKlinesCSV(p.paths.Market, bars); err != nil {
			return err
		}
		p.updateCounts(func(c *Counts) { c.Bars = len(bars) })
		log.Info().Int("rows", len(bars)).Str("path", p.paths.Market).Msg("market data saved")
		return nil
	})
}

// Clean normalizes the raw news dump into the cleaned table.
func (p *Pipeline) Clean(ctx context.Context) (int, error) {
	var n int
	err := p.stage(ctx, StageClean, func(_ context.Context, log zerolog.Logger) error {
		var err error
		if n, err = features.CleanStage(p.paths.RawNews, p.paths.Cleaned); err != nil {
			return err
		}
		p.updateCounts(func(c *Counts) { c.Cleaned = n })
		log.Info().Int("rows", n).Str("path", p.paths.Cleaned).Msg("news cleaned")
		return nil
	})
	return n, err
}

// Features scores the cleaned table and writes the feature table.
func (p *Pipeline) Features(ctx context.Context) (int, error) {
	var n int
	err := p.stage(ctx, StageFeatures, func(_ context.Context, log zerolog.Logger) error {
		x := features.NewExtractor(sentiment.NewAnalyzer(), sentiment.NewEntityExtractor())
		var err error
		if n, err = x.FeatureStage(p.paths.Cleaned, p.paths.Features); err != nil {
			return err
		}
		p.updateCounts(func(c *Counts) { c.Features = n })
		log.Info().Int("rows", n).Str("path", p.paths.Features).Msg("features extracted")
		return nil
	})
	return n, err
}

// Align joins the daily news aggregates onto the market bars and writes
// the final feature table.
func (p *Pipeline) Align(ctx context.Context) (aligner.Stats, error) {
	var stats aligner.Stats
	err := p.stage(ctx, StageAlign, func(_ context.Context, log zerolog.Logger) error {
		a := aligner.New(aligner.Options{MarketTimeColumn: p.cfg.Market.TimeColumn}, log)
		var err error
		if stats, err = a.AlignFiles(p.paths.Features, p.paths.Market, p.paths.Final); err != nil {
			return err
		}
		p.metrics.AddRowsAligned(p.cfg.Market.Symbol, stats.MarketRows)
		p.updateCounts(func(c *Counts) {
			c.AlignedRows = stats.MarketRows
			c.MatchedDays = stats.MatchedDays
			c.DroppedNewsDays = stats.UnmatchedNewsDays
		})
		log.Info().Stringer("stats", stats).Str("path", p.paths.Final).Msg("features aligned")
		return nil
	})
	return stats, err
}

// Plot renders the HTML report from the final table and, when pdf is
// set, converts it to PDF.
func (p *Pipeline) Plot(ctx context.Context, pdf bool) error {
	return p.stage(ctx, StageReport, func(ctx context.Context, log zerolog.Logger) error {
		table, err := tabular.ReadFile(p.paths.Final)
		if err != nil {
			return err
		}
		html, err := report.Render(table, p.reportOptions())
		if err != nil {
			return err
		}
		if err := report.WriteHTML(p.paths.Report, html); err != nil {
			return err
		}
		log.Info().Str("path", p.paths.Report).Msg("report written")

		p.mu.Lock()
		p.reported = true
		p.mu.Unlock()

		if !pdf {
			return nil
		}
		if err := report.ExportPDF(ctx, p.paths.Report, p.paths.PDF, report.EngineAuto); err != nil {
			if errors.Is(err, report.ErrNoPDFEngine) {
				log.Warn().Err(err).Msg("pdf skipped")
				return nil
			}
			return err
		}
		p.mu.Lock()
		p.pdfPath = p.paths.PDF
		p.mu.Unlock()
		log.Info().Str("path", p.paths.PDF).Msg("pdf written")
		return nil
	})
}

// Summary renders a plain-text summary of the final table.
func (p *Pipeline) Summary() (string, error) {
	table, err := tabular.ReadFile(p.paths.Final)
	if err != nil {
		return "", err
	}
	return report.RenderText(table, p.reportOptions())
}

func (p *Pipeline) reportOptions() report.Options {
	return report.Options{
		Symbol:     p.cfg.Market.Symbol,
		TimeColumn: p.cfg.Market.TimeColumn,
	}
}

// Export upserts the final table into the configured SQL store.
func (p *Pipeline) Export(ctx context.Context) (int, error) {
	var n int
	err := p.stage(ctx, StageExport, func(ctx context.Context, log zerolog.Logger) error {
		table, err := tabular.ReadFile(p.paths.Final)
		if err != nil {
			return err
		}
		st, err := store.Open(ctx, store.Config{
			Driver:     p.cfg.Store.Driver,
			DSN:        p.cfg.Store.DSN,
			Table:      p.cfg.Store.Table,
			TimeColumn: p.cfg.Market.TimeColumn,
		})
		if err != nil {
			return err
		}
		defer st.Close()

		if n, err = st.SaveAligned(ctx, p.runID, p.cfg.Market.Symbol, table); err != nil {
			return err
		}
		p.updateCounts(func(c *Counts) { c.Stored = n })
		log.Info().Int("rows", n).Str("driver", p.cfg.Store.Driver).Str("table", p.cfg.Store.Table).Msg("features exported")
		return nil
	})
	return n, err
}

// ── helpers ──

// stage wraps fn in a span, start/finish logs and a duration metric.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context, zerolog.Logger) error) error {
	log := p.log.With().Str("stage", name).Logger()
	ctx, span := trace.StartSpan(ctx, "stage."+name, attribute.String("run_id", p.runID))

	log.Debug().Msg("stage started")
	start := time.Now()
	err := fn(ctx, log)
	elapsed := time.Since(start)
	trace.End(span, err)

	p.metrics.ObserveStage(name, elapsed, err)
	result := StageResult{Name: name, Duration: elapsed, Status: StatusOK}
	if err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		err = &StageError{Stage: name, Err: err}
		log.Error().Err(err).Dur("duration", elapsed).Msg("stage failed")
	} else {
		log.Debug().Dur("duration", elapsed).Msg("stage finished")
	}

	p.mu.Lock()
	p.stages = append(p.stages, result)
	p.mu.Unlock()
	return err
}

func (p *Pipeline) newClient() *datasource.Client {
	return datasource.NewClient(datasource.ClientConfig{
		Timeout:           p.cfg.HTTP.Timeout,
		UserAgent:         p.cfg.HTTP.UserAgent,
		RequestsPerSecond: p.cfg.HTTP.RequestsPerSecond,
		Burst:             p.cfg.HTTP.Burst,
	})
}

func (p *Pipeline) newsBaseURL() string {
	switch p.cfg.News.Source {
	case datasource.SourceNewsAPI:
		return p.cfg.HTTP.NewsAPIBaseURL
	case datasource.SourceCryptoPanic:
		return p.cfg.HTTP.CryptoPanicBaseURL
	}
	return ""
}

func (p *Pipeline) writeMetrics() error {
	path := p.cfg.Metrics.Textfile
	if path == "" {
		return nil
	}
	if err := p.metrics.WriteTextfile(path); err != nil {
		p.log.Error().Err(err).Str("path", path).Msg("write metrics")
		return err
	}
	return nil
}

// Counts returns a snapshot of the row counts recorded so far.
func (p *Pipeline) Counts() Counts {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts
}

func (p *Pipeline) updateCounts(fn func(*Counts)) {
	p.mu.Lock()
	fn(&p.counts)
	p.mu.Unlock()
}

// StageError identifies the stage a run failed in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }
