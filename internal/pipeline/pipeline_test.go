package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/slowdive42/news2alpha/internal/aligner"
	"github.com/slowdive42/news2alpha/internal/config"
	"github.com/slowdive42/news2alpha/internal/datasource"
	"github.com/slowdive42/news2alpha/internal/store"
	"github.com/slowdive42/news2alpha/internal/tabular"
	"github.com/slowdive42/news2alpha/internal/trace"
)

const (
	dayMs  = int64(86400000)
	jan1Ms = int64(1704067200000) // 2024-01-01T00:00:00Z
)

func kline(openMs int64, close string) string {
	return fmt.Sprintf(`[%d,"100","110","90",%q,"10",%d,"1000",5,"4","400","0"]`, openMs, close, openMs+dayMs-1)
}

const newsPage = `{
  "status": "ok",
  "totalResults": 3,
  "articles": [
    {"source": {"name": "Wire"}, "title": "Bitcoin surges to record high", "description": "Traders cheer strong gains as bitcoin rallies.", "url": "https://example.com/a", "publishedAt": "2024-01-01T09:00:00Z"},
    {"source": {"name": "Wire"}, "title": "Bitcoin slips", "description": "Bitcoin fell after a weak session.", "url": "https://example.com/b", "publishedAt": "2024-01-01T23:30:00+00:00"},
    {"source": {"name": "Desk"}, "title": "Bitcoin rallies again", "description": "Great week for bitcoin bulls.", "url": "https://example.com/c", "publishedAt": "2024-01-03T12:00:00Z"}
  ]
}`

type fakeAPIs struct {
	news    *httptest.Server
	binance *httptest.Server
}

func newFakeAPIs(t *testing.T, bars string) *fakeAPIs {
	t.Helper()
	news := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "test-key-123456" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"status":"error","code":"apiKeyInvalid","message":"bad key"}`)
			return
		}
		fmt.Fprint(w, newsPage)
	}))
	binance := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if bars == "" {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"code":-1000,"msg":"boom"}`)
			return
		}
		fmt.Fprint(w, bars)
	}))
	t.Cleanup(news.Close)
	t.Cleanup(binance.Close)
	return &fakeAPIs{news: news, binance: binance}
}

func testConfig(t *testing.T, apis *fakeAPIs) *config.Config {
	t.Helper()
	t.Setenv(config.EnvNewsAPIKey, "")
	t.Setenv(config.EnvCryptoPanicKey, "")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	dir := t.TempDir()
	cfg.News.FromDate = "2024-01-01"
	cfg.News.ToDate = "2024-01-03"
	cfg.News.NewsAPIKey = "test-key-123456"
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.HTTP.RequestsPerSecond = 0
	cfg.HTTP.NewsAPIBaseURL = apis.news.URL
	cfg.HTTP.BinanceBaseURL = apis.binance.URL
	cfg.Store.Enabled = true
	cfg.Store.DSN = filepath.Join(dir, "features.db")
	cfg.Metrics.Textfile = filepath.Join(dir, "news2alpha.prom")
	return cfg
}

func threeBars() string {
	return "[" + kline(jan1Ms, "101") + "," + kline(jan1Ms+dayMs, "102") + "," + kline(jan1Ms+2*dayMs, "103") + "]"
}

// ── Full run ──

func TestRunEndToEnd(t *testing.T) {
	apis := newFakeAPIs(t, threeBars())
	cfg := testConfig(t, apis)

	p, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	m, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if m.Status != StatusOK || m.RunID != p.RunID() {
		t.Errorf("manifest: status %q run %q", m.Status, m.RunID)
	}
	want := Counts{Articles: 3, Bars: 3, Cleaned: 3, Features: 3, AlignedRows: 3, MatchedDays: 2, Stored: 3}
	if m.Counts != want {
		t.Errorf("counts: got %+v, want %+v", m.Counts, want)
	}
	if len(m.Stages) != 7 {
		t.Errorf("stages: got %d, want 7", len(m.Stages))
	}
	if m.Report != p.Paths().Report {
		t.Errorf("report path: got %q", m.Report)
	}

	// Final table: one row per bar, zero defaults on the quiet day.
	final, err := tabular.ReadFile(p.Paths().Final)
	if err != nil {
		t.Fatalf("read final: %v", err)
	}
	if final.Len() != 3 {
		t.Fatalf("final rows: got %d, want 3", final.Len())
	}
	counts := final.Column("news_count")
	means := final.Column("sentiment_mean")
	dates := final.Column("Date")
	for i, wantCount := range []string{"2", "0", "1"} {
		if counts[i] != wantCount {
			t.Errorf("row %d news_count: got %q, want %q", i, counts[i], wantCount)
		}
	}
	if dates[0] != "2024-01-01T00:00:00Z" {
		t.Errorf("Date: got %q", dates[0])
	}
	if v, _ := strconv.ParseFloat(means[1], 64); v != 0 {
		t.Errorf("quiet day sentiment_mean: got %q, want 0", means[1])
	}
	if v, _ := strconv.ParseFloat(means[2], 64); v <= 0 {
		t.Errorf("Jan 3 sentiment_mean: got %q, want positive", means[2])
	}

	// Side outputs.
	for _, path := range []string{p.Paths().RawNews, p.Paths().Market, p.Paths().Report, p.Paths().Manifest, cfg.Metrics.Textfile} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s: %v", path, err)
		}
	}
	prom, _ := os.ReadFile(cfg.Metrics.Textfile)
	if !strings.Contains(string(prom), "news2alpha_rows_aligned_total") {
		t.Errorf("metrics textfile missing rows_aligned counter:\n%s", prom)
	}

	saved, err := ReadManifest(p.Paths().Manifest)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if saved.RunID != p.RunID() || saved.Counts != want {
		t.Errorf("saved manifest: got %+v", saved)
	}
	if saved.Config == nil || saved.Config.Market.Symbol != "BTCUSDT" {
		t.Errorf("saved config echo: got %+v", saved.Config)
	}
	manifestText, _ := os.ReadFile(p.Paths().Manifest)
	if strings.Contains(string(manifestText), "test-key-123456") {
		t.Error("manifest leaks the API key")
	}

	st, err := store.Open(ctx, store.Config{Driver: store.DriverSQLite, DSN: cfg.Store.DSN})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close()
	rows, err := st.Rows(ctx, p.RunID())
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("stored rows: got %d, want 3", len(rows))
	}
}

func TestRunMarketFailure(t *testing.T) {
	apis := newFakeAPIs(t, "")
	cfg := testConfig(t, apis)

	p, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageFetchMarket {
		t.Fatalf("got %v, want fetch_market stage error", err)
	}
	var httpErr *datasource.ErrHTTP
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("got %v, want HTTP 500", err)
	}
	if m.Status != StatusFailed || m.Error == "" {
		t.Errorf("manifest: got status %q error %q", m.Status, m.Error)
	}
	if _, err := os.Stat(p.Paths().Final); !os.IsNotExist(err) {
		t.Errorf("final table should not exist: %v", err)
	}
	if _, err := os.Stat(p.Paths().Manifest); err != nil {
		t.Errorf("manifest should be written on failure: %v", err)
	}
}

func TestRunDuplicateMarketDay(t *testing.T) {
	bars := "[" + kline(jan1Ms, "101") + "," + kline(jan1Ms+3600000, "102") + "]"
	apis := newFakeAPIs(t, bars)
	cfg := testConfig(t, apis)
	cfg.Store.Enabled = false

	p, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = p.Run(context.Background())
	var dupErr *aligner.DuplicateDayError
	if !errors.As(err, &dupErr) {
		t.Fatalf("got %v, want DuplicateDayError", err)
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageAlign {
		t.Errorf("got %v, want align stage error", err)
	}
	if _, err := os.Stat(p.Paths().Final); !os.IsNotExist(err) {
		t.Errorf("final table should not exist: %v", err)
	}
}

func TestRunMissingAPIKey(t *testing.T) {
	apis := newFakeAPIs(t, threeBars())
	cfg := testConfig(t, apis)
	cfg.News.NewsAPIKey = ""

	p, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Run(context.Background()); !errors.Is(err, datasource.ErrMissingAPIKey) {
		t.Errorf("got %v, want ErrMissingAPIKey", err)
	}
}

// ── Individual stages ──

func TestStagesRunSeparately(t *testing.T) {
	apis := newFakeAPIs(t, threeBars())
	cfg := testConfig(t, apis)
	ctx := context.Background()

	p, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if n, err := p.FetchNews(ctx); err != nil || n != 3 {
		t.Fatalf("FetchNews: got %d, %v", n, err)
	}
	if n, err := p.FetchMarket(ctx); err != nil || n != 3 {
		t.Fatalf("FetchMarket: got %d, %v", n, err)
	}

	// A second pipeline over the same data directory picks up the files.
	p2, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p2.RunID() == p.RunID() {
		t.Error("run ids should differ between pipelines")
	}
	if n, err := p2.Clean(ctx); err != nil || n != 3 {
		t.Fatalf("Clean: got %d, %v", n, err)
	}
	if n, err := p2.Features(ctx); err != nil || n != 3 {
		t.Fatalf("Features: got %d, %v", n, err)
	}
	stats, err := p2.Align(ctx)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if stats.MarketRows != 3 || stats.Articles != 3 || stats.NewsDays != 2 {
		t.Errorf("stats: got %+v", stats)
	}
	if err := p2.Plot(ctx, false); err != nil {
		t.Fatalf("Plot: %v", err)
	}
	if n, err := p2.Export(ctx); err != nil || n != 3 {
		t.Fatalf("Export: got %d, %v", n, err)
	}
	summary, err := p2.Summary()
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	for _, want := range []string{"Market rows:      3", "Articles:         3"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestRunRecordsTraceID(t *testing.T) {
	apis := newFakeAPIs(t, threeBars())
	cfg := testConfig(t, apis)
	cfg.Report.Enabled = false

	prev := otel.GetTracerProvider()
	defer otel.SetTracerProvider(prev)

	var spans bytes.Buffer
	ctx := context.Background()
	stop, err := trace.Init(ctx, trace.Config{Enabled: true, ServiceName: "news2alpha-test", Writer: &spans})
	if err != nil {
		t.Fatalf("trace.Init: %v", err)
	}

	p, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := stop(ctx); err != nil {
		t.Fatalf("trace shutdown: %v", err)
	}

	if len(m.TraceID) != 32 {
		t.Fatalf("TraceID: got %q, want 32 hex chars", m.TraceID)
	}
	saved, err := ReadManifest(p.Paths().Manifest)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if saved.TraceID != m.TraceID {
		t.Errorf("saved TraceID: got %q, want %q", saved.TraceID, m.TraceID)
	}
	if !strings.Contains(spans.String(), m.TraceID) {
		t.Error("exported spans do not carry the manifest trace id")
	}
}

func TestAlignWithoutInputs(t *testing.T) {
	apis := newFakeAPIs(t, threeBars())
	cfg := testConfig(t, apis)

	p, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Align(context.Background()); err == nil {
		t.Error("expected error when the feature file is missing")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	apis := newFakeAPIs(t, threeBars())
	cfg := testConfig(t, apis)
	cfg.News.FromDate = "2024-02-01"

	_, err := New(cfg, zerolog.Nop())
	var vErr *config.ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("got %v, want *config.ValidationError", err)
	}
}

// ── Paths ──

func TestNewPaths(t *testing.T) {
	cfg := &config.Config{
		News:   config.NewsConfig{Source: "newsapi", Query: "bitcoin OR btc", FromDate: "2024-01-01", ToDate: "2024-01-31"},
		Market: config.MarketConfig{Symbol: "BTCUSDT", Interval: "1d"},
		Paths:  config.PathsConfig{DataDir: "data"},
	}
	p := NewPaths(cfg)

	tests := []struct {
		name, got, want string
	}{
		{"RawNews", p.RawNews, filepath.Join("data", "raw_news", "newsapi_bitcoin_OR_btc_2024-01-01_2024-01-31.json")},
		{"Market", p.Market, filepath.Join("data", "market_data", "BTCUSDT_1d_2024-01-01_2024-01-31.csv")},
		{"Cleaned", p.Cleaned, filepath.Join("data", "processed_news", "cleaned_bitcoin_OR_btc_2024-01-01_2024-01-31.csv")},
		{"Features", p.Features, filepath.Join("data", "processed_news", "features_bitcoin_OR_btc_2024-01-01_2024-01-31.csv")},
		{"Final", p.Final, filepath.Join("data", "final_features", "final_BTCUSDT_2024-01-01_2024-01-31.csv")},
		{"Report", p.Report, filepath.Join("data", "reports", "report_BTCUSDT_2024-01-01_2024-01-31.html")},
		{"Manifest", p.Manifest, filepath.Join("data", "final_features", "manifest_BTCUSDT_2024-01-01_2024-01-31.yaml")},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"bitcoin", "bitcoin"},
		{"bitcoin OR btc", "bitcoin_OR_btc"},
		{"  spaced  out ", "spaced_out"},
		{"../../etc", "etc"},
		{"a/b\\c", "a_b_c"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := slug(tt.in); got != tt.want {
			t.Errorf("slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
