package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/slowdive42/news2alpha/internal/tabular"
	"github.com/slowdive42/news2alpha/pkg/models"
	"github.com/slowdive42/news2alpha/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Report Generator
// ════════════════════════════════════════════════════════════════════

// Options controls report rendering.
type Options struct {
	Symbol      string
	Title       string    // default: "<Symbol> news sentiment vs price"
	TimeColumn  string    // default: "Date"
	CloseColumn string    // default: "Close"
	GeneratedAt time.Time // default: now
	TopDays     int       // busiest days listed; default 5, negative hides the table
}

func (o Options) withDefaults() Options {
	if o.TimeColumn == "" {
		o.TimeColumn = "Date"
	}
	if o.CloseColumn == "" {
		o.CloseColumn = "Close"
	}
	if o.Title == "" {
		o.Title = strings.TrimSpace(o.Symbol + " news sentiment vs price")
	}
	if o.GeneratedAt.IsZero() {
		o.GeneratedAt = time.Now().UTC()
	}
	if o.TopDays == 0 {
		o.TopDays = 5
	}
	return o
}

// Summary holds statistics of an aligned table.
type Summary struct {
	Rows          int
	From, To      string
	DaysWithNews  int
	TotalArticles int
	// MeanSentiment averages sentiment_mean over days that have news.
	MeanSentiment  float64
	FirstClose     float64
	LastClose      float64
	PriceChangePct float64
	// Correlation is the Pearson correlation of the close-to-close return
	// with same-day sentiment_mean over days with news. CorrelationOK is
	// false when fewer than two such days exist or either side is constant.
	Correlation   float64
	CorrelationOK bool
}

// series is the per-row data extracted from an aligned table.
type series struct {
	days      []string
	close     []float64
	sentiment []float64
	counts    []int
}

// Summarize computes report statistics for an aligned table.
func Summarize(table *tabular.Table, opts Options) (Summary, error) {
	s, err := extract(table, opts.withDefaults())
	if err != nil {
		return Summary{}, err
	}
	return s.summary(), nil
}

// Render builds the HTML report for an aligned table.
func Render(table *tabular.Table, opts Options) (string, error) {
	opts = opts.withDefaults()
	s, err := extract(table, opts)
	if err != nil {
		return "", err
	}

	data := buildReportData(s, opts)

	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// RenderText builds a plain-text summary suitable for a terminal.
func RenderText(table *tabular.Table, opts Options) (string, error) {
	opts = opts.withDefaults()
	s, err := extract(table, opts)
	if err != nil {
		return "", err
	}
	return renderTextReport(buildReportData(s, opts)), nil
}

// WriteHTML atomically writes an HTML document to path.
func WriteHTML(path, html string) error {
	return tabular.WriteFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, html)
		return err
	})
}

// ════════════════════════════════════════════════════════════════════
// Internal: extract and summarize
// ════════════════════════════════════════════════════════════════════

func extract(table *tabular.Table, opts Options) (*series, error) {
	if table == nil {
		return nil, fmt.Errorf("table is nil")
	}
	cols, missing := table.Lookup(opts.TimeColumn, opts.CloseColumn, models.ColSentimentMean, models.ColNewsCount)
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s: missing columns %s", table.Name, strings.Join(missing, ", "))
	}

	s := &series{}
	for i, row := range table.Rows {
		cell := func(col string) string {
			idx := cols[col]
			if idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		day := cell(opts.TimeColumn)
		if t, err := utils.ParseTimestamp(day); err == nil {
			day = utils.DayKey(t)
		}
		closePx, err := strconv.ParseFloat(cell(opts.CloseColumn), 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %s: %w", table.Name, i+1, opts.CloseColumn, err)
		}
		sent, err := strconv.ParseFloat(cell(models.ColSentimentMean), 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %s: %w", table.Name, i+1, models.ColSentimentMean, err)
		}
		count, err := strconv.Atoi(cell(models.ColNewsCount))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %s: %w", table.Name, i+1, models.ColNewsCount, err)
		}

		s.days = append(s.days, day)
		s.close = append(s.close, closePx)
		s.sentiment = append(s.sentiment, sent)
		s.counts = append(s.counts, count)
	}
	return s, nil
}

func (s *series) summary() Summary {
	sum := Summary{Rows: len(s.days)}
	if sum.Rows == 0 {
		return sum
	}
	sum.From, sum.To = s.days[0], s.days[len(s.days)-1]
	sum.FirstClose, sum.LastClose = s.close[0], s.close[len(s.close)-1]
	if sum.FirstClose != 0 {
		sum.PriceChangePct = (sum.LastClose/sum.FirstClose - 1) * 100
	}

	var sentTotal float64
	for i, c := range s.counts {
		if c == 0 {
			continue
		}
		sum.DaysWithNews++
		sum.TotalArticles += c
		sentTotal += s.sentiment[i]
	}
	if sum.DaysWithNews > 0 {
		sum.MeanSentiment = sentTotal / float64(sum.DaysWithNews)
	}

	var rets, sents []float64
	for i := 1; i < len(s.close); i++ {
		if s.counts[i] == 0 || s.close[i-1] == 0 {
			continue
		}
		rets = append(rets, s.close[i]/s.close[i-1]-1)
		sents = append(sents, s.sentiment[i])
	}
	sum.Correlation, sum.CorrelationOK = pearson(rets, sents)
	return sum
}

// pearson returns the sample correlation of x and y.
func pearson(x, y []float64) (float64, bool) {
	n := len(x)
	if n < 2 || len(y) != n {
		return 0, false
	}
	var mx, my float64
	for i := range x {
		mx += x[i]
		my += y[i]
	}
	mx /= float64(n)
	my /= float64(n)

	var cov, vx, vy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0, false
	}
	return cov / math.Sqrt(vx*vy), true
}

// ════════════════════════════════════════════════════════════════════
// Internal: template data
// ════════════════════════════════════════════════════════════════════

// ReportData is passed to the HTML template.
type ReportData struct {
	Title       string
	Symbol      string
	From, To    string
	GeneratedAt string
	Summary     Summary

	MeanSentiment  string
	SentimentClass string
	PriceChange    string
	ChangeClass    string
	Correlation    string

	PriceChart template.HTML
	NewsChart  template.HTML
	TopDays    []DayRow
}

// DayRow is one line of the busiest-days table.
type DayRow struct {
	Day       string
	Count     int
	Sentiment string
	Close     string
}

func buildReportData(s *series, opts Options) ReportData {
	sum := s.summary()
	data := ReportData{
		Title:          opts.Title,
		Symbol:         opts.Symbol,
		From:           sum.From,
		To:             sum.To,
		GeneratedAt:    opts.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"),
		Summary:        sum,
		MeanSentiment:  fmt.Sprintf("%+.4f", sum.MeanSentiment),
		SentimentClass: signClass(sum.MeanSentiment),
		PriceChange:    fmt.Sprintf("%+.2f%%", sum.PriceChangePct),
		ChangeClass:    signClass(sum.PriceChangePct),
		Correlation:    "n/a",
	}
	if sum.CorrelationOK {
		data.Correlation = fmt.Sprintf("%+.3f", sum.Correlation)
	}

	priceCfg := DefaultChartConfig()
	priceCfg.Title = strings.TrimSpace(opts.Symbol + " " + opts.CloseColumn)
	data.PriceChart = template.HTML(LineChart(
		[]LineChartSeries{{Name: opts.CloseColumn, Values: s.close, Color: "#2563eb"}},
		s.days, priceCfg))

	newsCfg := DefaultChartConfig()
	newsCfg.Title = "Daily news sentiment and volume"
	data.NewsChart = template.HTML(NewsChart(s.sentiment, s.counts, s.days, newsCfg))

	if opts.TopDays > 0 {
		data.TopDays = topDays(s, opts.TopDays)
	}
	return data
}

// topDays lists the days with the most articles, earliest first on ties.
func topDays(s *series, limit int) []DayRow {
	idx := make([]int, 0, len(s.counts))
	for i, c := range s.counts {
		if c > 0 {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return s.counts[idx[a]] > s.counts[idx[b]]
	})
	if len(idx) > limit {
		idx = idx[:limit]
	}
	rows := make([]DayRow, len(idx))
	for i, k := range idx {
		rows[i] = DayRow{
			Day:       s.days[k],
			Count:     s.counts[k],
			Sentiment: fmt.Sprintf("%+.4f", s.sentiment[k]),
			Close:     strconv.FormatFloat(s.close[k], 'f', 2, 64),
		}
	}
	return rows
}

func signClass(v float64) string {
	switch {
	case v > 0:
		return "positive"
	case v < 0:
		return "negative"
	}
	return ""
}

// ════════════════════════════════════════════════════════════════════
// Plain-text renderer
// ════════════════════════════════════════════════════════════════════

func renderTextReport(d ReportData) string {
	var sb strings.Builder
	line := strings.Repeat("═", 60)
	thinLine := strings.Repeat("─", 60)

	sb.WriteString(line + "\n")
	sb.WriteString(fmt.Sprintf("  %s\n", d.Title))
	sb.WriteString(fmt.Sprintf("  %s to %s | generated %s\n", d.From, d.To, d.GeneratedAt))
	sb.WriteString(line + "\n")

	sb.WriteString(fmt.Sprintf("  Market rows:      %d\n", d.Summary.Rows))
	sb.WriteString(fmt.Sprintf("  Days with news:   %d\n", d.Summary.DaysWithNews))
	sb.WriteString(fmt.Sprintf("  Articles:         %d\n", d.Summary.TotalArticles))
	sb.WriteString(fmt.Sprintf("  Mean sentiment:   %s\n", d.MeanSentiment))
	sb.WriteString(fmt.Sprintf("  Price change:     %s\n", d.PriceChange))
	sb.WriteString(fmt.Sprintf("  Return/sent corr: %s\n", d.Correlation))

	if len(d.TopDays) > 0 {
		sb.WriteString(thinLine + "\n")
		sb.WriteString("  Busiest news days\n")
		for _, r := range d.TopDays {
			sb.WriteString(fmt.Sprintf("    %s  %4d articles  sentiment %s  close %s\n", r.Day, r.Count, r.Sentiment, r.Close))
		}
	}
	sb.WriteString(line + "\n")
	return sb.String()
}
