package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/slowdive42/news2alpha/internal/config"
)

// Data directory layout.
const (
	DirRawNews       = "raw_news"
	DirMarketData    = "market_data"
	DirProcessedNews = "processed_news"
	DirFinalFeatures = "final_features"
	DirReports       = "reports"
)

// Paths holds every file a run reads or writes.
type Paths struct {
	RawNews  string `yaml:"raw_news"`
	Market   string `yaml:"market"`
	Cleaned  string `yaml:"cleaned"`
	Features string `yaml:"features"`
	Final    string `yaml:"final"`
	Report   string `yaml:"report"`
	PDF      string `yaml:"pdf"`
	Manifest string `yaml:"manifest"`
}

// NewPaths derives the file layout under cfg.Paths.DataDir from the
// source, query, symbol and date window.
func NewPaths(cfg *config.Config) Paths {
	root := cfg.Paths.DataDir
	from, to := cfg.News.FromDate, cfg.News.ToDate
	query := slug(cfg.News.Query)
	if query == "" {
		query = "all"
	}
	symbol := slug(cfg.Market.Symbol)
	window := from + "_" + to

	return Paths{
		RawNews:  filepath.Join(root, DirRawNews, fmt.Sprintf("%s_%s_%s.json", slug(cfg.News.Source), query, window)),
		Market:   filepath.Join(root, DirMarketData, fmt.Sprintf("%s_%s_%s.csv", symbol, slug(cfg.Market.Interval), window)),
		Cleaned:  filepath.Join(root, DirProcessedNews, fmt.Sprintf("cleaned_%s_%s.csv", query, window)),
		Features: filepath.Join(root, DirProcessedNews, fmt.Sprintf("features_%s_%s.csv", query, window)),
		Final:    filepath.Join(root, DirFinalFeatures, fmt.Sprintf("final_%s_%s.csv", symbol, window)),
		Report:   filepath.Join(root, DirReports, fmt.Sprintf("report_%s_%s.html", symbol, window)),
		PDF:      filepath.Join(root, DirReports, fmt.Sprintf("report_%s_%s.pdf", symbol, window)),
		Manifest: filepath.Join(root, DirFinalFeatures, fmt.Sprintf("manifest_%s_%s.yaml", symbol, window)),
	}
}

// MakeDirs creates the parent directory of every path.
func (p Paths) MakeDirs() error {
	for _, f := range []string{p.RawNews, p.Market, p.Cleaned, p.Final, p.Report} {
		if err := os.MkdirAll(filepath.Dir(f), 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	return nil
}

// slug makes s safe for a file name. Letters, digits and '-' are kept;
// every other run of characters becomes a single underscore.
func slug(s string) string {
	var sb strings.Builder
	underscore := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			sb.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore {
			sb.WriteByte('_')
			underscore = true
		}
	}
	return strings.Trim(sb.String(), "_")
}
