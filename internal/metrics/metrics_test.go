package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounters(t *testing.T) {
	r := New()
	r.AddArticlesFetched("newsapi", 3)
	r.AddArticlesFetched("newsapi", 2)
	r.AddBarsFetched("BTCUSDT", 31)
	r.AddRowsAligned("BTCUSDT", 31)
	r.AddArticlesEnriched(4)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"articles", testutil.ToFloat64(r.articlesFetched.WithLabelValues("newsapi")), 5},
		{"bars", testutil.ToFloat64(r.barsFetched.WithLabelValues("BTCUSDT")), 31},
		{"rows", testutil.ToFloat64(r.rowsAligned.WithLabelValues("BTCUSDT")), 31},
		{"enriched", testutil.ToFloat64(r.articlesEnriched), 4},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestObserveStage(t *testing.T) {
	r := New()
	r.ObserveStage("align", 1500*time.Millisecond, nil)
	r.ObserveStage("fetch", time.Second, errors.New("boom"))

	if got := testutil.ToFloat64(r.stageDuration.WithLabelValues("align")); got != 1.5 {
		t.Errorf("align duration: got %v, want 1.5", got)
	}
	if got := testutil.ToFloat64(r.stageErrors.WithLabelValues("fetch")); got != 1 {
		t.Errorf("fetch errors: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.stageErrors.WithLabelValues("align")); got != 0 {
		t.Errorf("align errors: got %v, want 0", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.AddRowsAligned("BTCUSDT", 7)
	r.MarkSuccess(time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "textfile", "news2alpha.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		`news2alpha_rows_aligned_total{symbol="BTCUSDT"} 7`,
		"news2alpha_last_success_timestamp_seconds 1.7e+09",
		"# TYPE news2alpha_articles_enriched_total counter",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
}
