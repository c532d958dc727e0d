package report

import (
	"context"
	"errors"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/slowdive42/news2alpha/internal/tabular"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

func sampleAligned() *tabular.Table {
	t := tabular.New("final.csv", "Date", "Open", "High", "Low", "Close", "Volume", "sentiment_mean", "news_count")
	t.Append("2024-01-01T00:00:00Z", "100", "101", "99", "100", "10", "0", "0")
	t.Append("2024-01-02T00:00:00Z", "100", "111", "99", "110", "10", "0.5", "2")
	t.Append("2024-01-03T00:00:00Z", "110", "111", "98", "99", "10", "-0.5", "1")
	t.Append("2024-01-04T00:00:00Z", "99", "100", "98", "99", "10", "0", "0")
	t.Append("2024-01-05T00:00:00Z", "99", "110", "98", "108.9", "10", "0.25", "3")
	return t
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

// ════════════════════════════════════════════════════════════════════
// Charts
// ════════════════════════════════════════════════════════════════════

func TestLineChart_Basic(t *testing.T) {
	series := []LineChartSeries{
		{Name: "Close", Values: []float64{100, 105, 102, 110, 108}, Color: "#2196f3"},
		{Name: "Open", Values: []float64{100, 103, 101, 106, 104}},
	}
	labels := []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"}

	cfg := DefaultChartConfig()
	cfg.Title = "BTCUSDT Close"

	svg := LineChart(series, labels, cfg)
	for _, want := range []string{"BTCUSDT Close", "Close", "Open", "2024-01-01", "<path"} {
		if !strings.Contains(svg, want) {
			t.Errorf("expected %q in SVG", want)
		}
	}
}

func TestLineChart_Empty(t *testing.T) {
	svg := LineChart(nil, nil, DefaultChartConfig())
	if !strings.Contains(svg, "No data") {
		t.Error("expected empty message")
	}
	svg = LineChart([]LineChartSeries{{Name: "A", Values: []float64{math.NaN()}}}, nil, DefaultChartConfig())
	if !strings.Contains(svg, "No data points") {
		t.Error("expected empty message for all-NaN series")
	}
}

func TestLineChart_SinglePoint(t *testing.T) {
	series := []LineChartSeries{{Name: "A", Values: []float64{42}}}
	svg := LineChart(series, nil, DefaultChartConfig())
	if !strings.Contains(svg, "<circle") {
		t.Error("expected a marker for a single point")
	}
	if strings.Contains(svg, "NaN") || strings.Contains(svg, "Inf") {
		t.Error("single point produced invalid coordinates")
	}
}

func TestLineChart_NaN(t *testing.T) {
	series := []LineChartSeries{
		{Name: "Test", Values: []float64{10, math.NaN(), 20, math.NaN(), 30}},
	}
	svg := LineChart(series, nil, DefaultChartConfig())
	if !strings.Contains(svg, "path") {
		t.Error("expected path even with NaN values")
	}
}

func TestLineChart_ZeroConfigKeepsTitle(t *testing.T) {
	svg := LineChart([]LineChartSeries{{Name: "A", Values: []float64{1, 2}}}, nil, ChartConfig{Title: "Mine"})
	if !strings.Contains(svg, "Mine") {
		t.Error("expected custom title with zero config")
	}
	if !strings.Contains(svg, `width="800"`) {
		t.Error("expected default width")
	}
}

func TestNewsChart(t *testing.T) {
	sent := []float64{0, 0.5, -0.5, 0}
	counts := []int{0, 2, 1, 0}
	svg := NewsChart(sent, counts, []string{"a", "b", "c", "d"}, DefaultChartConfig())

	if got := strings.Count(svg, "<rect"); got != 3 { // background + 2 bars
		t.Errorf("rects: got %d, want 3", got)
	}
	if got := strings.Count(svg, "<circle"); got != 2 {
		t.Errorf("sentiment points: got %d, want 2", got)
	}
	for _, want := range []string{"sentiment_mean", "news_count", "News Sentiment"} {
		if !strings.Contains(svg, want) {
			t.Errorf("expected %q in SVG", want)
		}
	}
}

func TestNewsChart_Empty(t *testing.T) {
	if svg := NewsChart(nil, nil, nil, DefaultChartConfig()); !strings.Contains(svg, "No news data") {
		t.Error("expected empty message")
	}
	if svg := NewsChart([]float64{1}, []int{1, 2}, nil, DefaultChartConfig()); !strings.Contains(svg, "No news data") {
		t.Error("expected empty message for mismatched lengths")
	}
}

func TestEscapeXML(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello", "hello"},
		{"a & b", "a &amp; b"},
		{"<b>test</b>", "&lt;b&gt;test&lt;/b&gt;"},
		{`"quoted"`, "&quot;quoted&quot;"},
	}

	for _, tt := range tests {
		result := escapeXML(tt.input)
		if result != tt.expected {
			t.Errorf("escapeXML(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestAxisLabel(t *testing.T) {
	tests := []struct {
		v, span float64
		want    string
	}{
		{42000.4, 5000, "42000"},
		{3.14159, 5, "3.1"},
		{-0.256, 2, "-0.3"},
		{0.256, 0.5, "0.26"},
	}
	for _, tt := range tests {
		if got := axisLabel(tt.v, tt.span); got != tt.want {
			t.Errorf("axisLabel(%v, %v) = %q, want %q", tt.v, tt.span, got, tt.want)
		}
	}
}

func TestPlotArea(t *testing.T) {
	cfg := DefaultChartConfig()
	x, y, w, h := cfg.plotArea()
	if x != cfg.MarginLeft || y != cfg.MarginTop {
		t.Errorf("origin: got (%d,%d)", x, y)
	}
	if w != cfg.Width-cfg.MarginLeft-cfg.MarginRight {
		t.Errorf("width: got %d", w)
	}
	if h != cfg.Height-cfg.MarginTop-cfg.MarginBottom {
		t.Errorf("height: got %d", h)
	}
}

// ════════════════════════════════════════════════════════════════════
// Summary
// ════════════════════════════════════════════════════════════════════

func TestSummarize(t *testing.T) {
	sum, err := Summarize(sampleAligned(), Options{Symbol: "BTCUSDT"})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.Rows != 5 || sum.DaysWithNews != 3 || sum.TotalArticles != 6 {
		t.Errorf("counts: got %+v", sum)
	}
	if sum.From != "2024-01-01" || sum.To != "2024-01-05" {
		t.Errorf("range: got %s..%s", sum.From, sum.To)
	}
	if !approx(sum.MeanSentiment, 0.25/3) {
		t.Errorf("mean sentiment: got %v, want %v", sum.MeanSentiment, 0.25/3)
	}
	if !approx(sum.PriceChangePct, 8.9) {
		t.Errorf("price change: got %v, want 8.9", sum.PriceChangePct)
	}
	if !sum.CorrelationOK || sum.Correlation < 0.9 || sum.Correlation > 1 {
		t.Errorf("correlation: got %v (ok=%v), want ~0.97", sum.Correlation, sum.CorrelationOK)
	}
}

func TestSummarize_NoNews(t *testing.T) {
	tbl := tabular.New("x", "Date", "Close", "sentiment_mean", "news_count")
	tbl.Append("2024-01-01", "1", "0", "0")
	tbl.Append("2024-01-02", "2", "0", "0")

	sum, err := Summarize(tbl, Options{})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.DaysWithNews != 0 || sum.MeanSentiment != 0 {
		t.Errorf("got %+v", sum)
	}
	if sum.CorrelationOK {
		t.Error("correlation should be undefined without news days")
	}
}

func TestSummarize_Errors(t *testing.T) {
	missing := tabular.New("m.csv", "Date", "Close")
	if _, err := Summarize(missing, Options{}); err == nil || !strings.Contains(err.Error(), "sentiment_mean") {
		t.Errorf("missing columns: got %v", err)
	}

	bad := tabular.New("b.csv", "Date", "Close", "sentiment_mean", "news_count")
	bad.Append("2024-01-01", "abc", "0", "0")
	if _, err := Summarize(bad, Options{}); err == nil || !strings.Contains(err.Error(), "row 1") {
		t.Errorf("bad close: got %v", err)
	}

	if _, err := Summarize(nil, Options{}); err == nil {
		t.Error("nil table: expected error")
	}
}

func TestPearson(t *testing.T) {
	if r, ok := pearson([]float64{1, 2, 3}, []float64{2, 4, 6}); !ok || !approx(r, 1) {
		t.Errorf("perfect positive: got %v %v", r, ok)
	}
	if r, ok := pearson([]float64{1, 2, 3}, []float64{3, 2, 1}); !ok || !approx(r, -1) {
		t.Errorf("perfect negative: got %v %v", r, ok)
	}
	if _, ok := pearson([]float64{1, 1, 1}, []float64{1, 2, 3}); ok {
		t.Error("constant input should be undefined")
	}
	if _, ok := pearson([]float64{1}, []float64{1}); ok {
		t.Error("single point should be undefined")
	}
}

// ════════════════════════════════════════════════════════════════════
// Rendering
// ════════════════════════════════════════════════════════════════════

func TestRender(t *testing.T) {
	html, err := Render(sampleAligned(), Options{
		Symbol:      "BTCUSDT",
		GeneratedAt: time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{
		"<!DOCTYPE html>",
		"BTCUSDT news sentiment vs price",
		"2024-01-01 to 2024-01-05",
		"2024-02-01 12:00 UTC",
		"+8.90%",
		"Busiest News Days",
		"<svg",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("expected %q in HTML", want)
		}
	}
	// Busiest day first.
	if i, j := strings.Index(html, "<td>2024-01-05</td>"), strings.Index(html, "<td>2024-01-03</td>"); i < 0 || j < 0 || i > j {
		t.Error("expected 2024-01-05 listed before 2024-01-03")
	}
}

func TestRender_EscapesTitle(t *testing.T) {
	html, err := Render(sampleAligned(), Options{Title: "<script>x</script>"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(html, "<script>x</script>") {
		t.Error("title must be escaped")
	}
}

func TestRender_HideTopDays(t *testing.T) {
	html, err := Render(sampleAligned(), Options{TopDays: -1})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(html, "Busiest News Days") {
		t.Error("top days table should be hidden")
	}
}

func TestRenderText(t *testing.T) {
	text, err := RenderText(sampleAligned(), Options{Symbol: "BTCUSDT"})
	if err != nil {
		t.Fatalf("RenderText: %v", err)
	}
	for _, want := range []string{"Market rows:      5", "Articles:         6", "Busiest news days", "2024-01-05"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in text report", want)
		}
	}
}

func TestWriteHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "r.html")
	if err := WriteHTML(path, "<html></html>"); err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "<html></html>" {
		t.Errorf("content: got %q", got)
	}
}

// ════════════════════════════════════════════════════════════════════
// PDF
// ════════════════════════════════════════════════════════════════════

func TestDetectPDFEngine(t *testing.T) {
	orig := lookPath
	defer func() { lookPath = orig }()

	tests := []struct {
		installed map[string]bool
		want      PDFEngine
	}{
		{map[string]bool{"wkhtmltopdf": true, "chromium": true}, EngineWKHTML},
		{map[string]bool{"google-chrome": true}, EngineChromium},
		{map[string]bool{}, EngineNone},
	}
	for _, tt := range tests {
		lookPath = func(name string) (string, error) {
			if tt.installed[name] {
				return "/usr/bin/" + name, nil
			}
			return "", exec.ErrNotFound
		}
		if got := DetectPDFEngine(); got != tt.want {
			t.Errorf("installed %v: got %q, want %q", tt.installed, got, tt.want)
		}
	}
}

func TestExportPDF_NoEngine(t *testing.T) {
	orig := lookPath
	defer func() { lookPath = orig }()
	lookPath = func(string) (string, error) { return "", exec.ErrNotFound }

	err := ExportPDF(context.Background(), "r.html", "r.pdf", EngineAuto)
	if !errors.Is(err, ErrNoPDFEngine) {
		t.Errorf("got %v, want ErrNoPDFEngine", err)
	}
	if err := ExportPDF(context.Background(), "r.html", "r.pdf", "prince"); err == nil {
		t.Error("unknown engine: expected error")
	}
}
