// Package report renders the aligned feature table as a self-contained HTML
// page with inline SVG charts and summary statistics.
package report

import (
	"fmt"
	"math"
	"strings"
)

// ════════════════════════════════════════════════════════════════════
// SVG Chart Generator
// ════════════════════════════════════════════════════════════════════

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int    // SVG width in pixels (default: 800)
	Height       int    // SVG height in pixels (default: 320)
	MarginTop    int    // top margin (default: 40)
	MarginRight  int    // right margin (default: 60)
	MarginBottom int    // bottom margin (default: 50)
	MarginLeft   int    // left margin (default: 70)
	BgColor      string // background color (default: "#ffffff")
	GridColor    string // grid line color (default: "#e8e8e8")
	TextColor    string // axis label color (default: "#333333")
	FontSize     int    // axis label font size (default: 11)
	Title        string // chart title
}

// DefaultChartConfig returns sensible defaults for chart rendering.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        800,
		Height:       320,
		MarginTop:    40,
		MarginRight:  60,
		MarginBottom: 50,
		MarginLeft:   70,
		BgColor:      "#ffffff",
		GridColor:    "#e8e8e8",
		TextColor:    "#333333",
		FontSize:     11,
	}
}

// plotArea returns the usable drawing area dimensions.
func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

// xPos returns the horizontal centre of point i out of n.
func (c ChartConfig) xPos(i, n int) float64 {
	px, _, pw, _ := c.plotArea()
	if n <= 1 {
		return float64(px) + float64(pw)/2
	}
	return float64(px) + float64(i)*float64(pw)/float64(n-1)
}

// ════════════════════════════════════════════════════════════════════
// Line Chart
// ════════════════════════════════════════════════════════════════════

// LineChartSeries is one named line on a LineChart.
type LineChartSeries struct {
	Name   string
	Values []float64
	Color  string
}

// LineChart generates an SVG line chart with one or more series sharing
// the y axis. NaN values leave a gap in the line.
func LineChart(series []LineChartSeries, labels []string, cfg ChartConfig) string {
	if len(series) == 0 {
		return emptySVG(cfg, "No data")
	}

	if cfg.Width == 0 {
		title := cfg.Title
		cfg = DefaultChartConfig()
		cfg.Title = title
	}
	if cfg.Title == "" {
		cfg.Title = "Line Chart"
	}

	_, py, _, ph := cfg.plotArea()

	minVal, maxVal := math.MaxFloat64, -math.MaxFloat64
	maxLen := 0
	for _, s := range series {
		if len(s.Values) > maxLen {
			maxLen = len(s.Values)
		}
		for _, v := range s.Values {
			if math.IsNaN(v) {
				continue
			}
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
		}
	}
	if maxLen == 0 || minVal > maxVal {
		return emptySVG(cfg, "No data points")
	}

	vRange := maxVal - minVal
	if vRange < 1e-9 {
		vRange = math.Max(math.Abs(maxVal), 1)
	}
	minVal -= vRange * 0.05
	maxVal += vRange * 0.05
	vRange = maxVal - minVal

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	writeFrame(&sb, cfg)
	writeYGrid(&sb, cfg, minVal, maxVal)

	defaultColors := []string{"#2196f3", "#ff9800", "#4caf50", "#e91e63", "#9c27b0", "#00bcd4"}
	for si, s := range series {
		color := s.Color
		if color == "" {
			color = defaultColors[si%len(defaultColors)]
		}

		var pathParts []string
		var cx, cy float64
		for i, v := range s.Values {
			if math.IsNaN(v) {
				continue
			}
			cx = cfg.xPos(i, maxLen)
			cy = float64(py+ph) - (v-minVal)/vRange*float64(ph)
			cmd := "L"
			if len(pathParts) == 0 {
				cmd = "M"
			}
			pathParts = append(pathParts, fmt.Sprintf("%s%.1f,%.1f", cmd, cx, cy))
		}
		switch {
		case len(pathParts) > 1:
			sb.WriteString(fmt.Sprintf(`<path d="%s" fill="none" stroke="%s" stroke-width="2"/>`,
				strings.Join(pathParts, " "), color))
		case len(pathParts) == 1:
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>`, cx, cy, color))
		}

		writeLegend(&sb, cfg, si, s.Name, color)
	}

	writeXLabels(&sb, cfg, labels, maxLen)
	sb.WriteString("</svg>")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// News Chart: daily article counts as bars, sentiment as a line
// ════════════════════════════════════════════════════════════════════

// NewsChart draws counts as bars scaled to the right axis and sentiment as
// a line on a fixed [-1, 1] left axis. Days without news have no sentiment
// point.
func NewsChart(sentiment []float64, counts []int, labels []string, cfg ChartConfig) string {
	n := len(counts)
	if n == 0 || len(sentiment) != n {
		return emptySVG(cfg, "No news data")
	}
	if cfg.Width == 0 {
		title := cfg.Title
		cfg = DefaultChartConfig()
		cfg.Title = title
	}
	if cfg.Title == "" {
		cfg.Title = "News Sentiment"
	}

	px, py, pw, ph := cfg.plotArea()

	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	writeFrame(&sb, cfg)
	writeYGrid(&sb, cfg, -1, 1)

	// Right axis: article count.
	if maxCount > 0 {
		for i := 0; i <= 4; i++ {
			val := float64(maxCount) * float64(i) / 4
			y := py + ph - int(float64(ph)*float64(i)/4)
			sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="%d" fill="%s" text-anchor="start">%.0f</text>`,
				px+pw+5, y+4, cfg.FontSize, cfg.TextColor, val))
		}
	}

	slot := float64(pw) / float64(n)
	barWidth := math.Max(slot*0.6, 1)
	for i, c := range counts {
		if c <= 0 || maxCount == 0 {
			continue
		}
		h := float64(c) / float64(maxCount) * float64(ph)
		cx := cfg.xPos(i, n)
		sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="#90caf9" opacity="0.7"/>`,
			cx-barWidth/2, float64(py+ph)-h, barWidth, h))
	}

	// Zero line for sentiment.
	zeroY := float64(py) + float64(ph)/2
	sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="#999" stroke-width="1"/>`,
		px, zeroY, px+pw, zeroY))

	var pathParts []string
	for i, v := range sentiment {
		if counts[i] == 0 || math.IsNaN(v) {
			continue
		}
		v = math.Max(-1, math.Min(1, v))
		cx := cfg.xPos(i, n)
		cy := float64(py+ph) - (v+1)/2*float64(ph)
		cmd := "L"
		if len(pathParts) == 0 {
			cmd = "M"
		}
		pathParts = append(pathParts, fmt.Sprintf("%s%.1f,%.1f", cmd, cx, cy))
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="2.5" fill="#e65100"/>`, cx, cy))
	}
	if len(pathParts) > 1 {
		sb.WriteString(fmt.Sprintf(`<path d="%s" fill="none" stroke="#e65100" stroke-width="2"/>`,
			strings.Join(pathParts, " ")))
	}

	writeLegend(&sb, cfg, 0, "sentiment_mean", "#e65100")
	writeLegend(&sb, cfg, 1, "news_count", "#90caf9")
	writeXLabels(&sb, cfg, labels, n)
	sb.WriteString("</svg>")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Helpers
// ════════════════════════════════════════════════════════════════════

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func writeFrame(sb *strings.Builder, cfg ChartConfig) {
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="20" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))
}

func writeYGrid(sb *strings.Builder, cfg ChartConfig, minVal, maxVal float64) {
	px, py, pw, ph := cfg.plotArea()
	gridLines := 4
	for i := 0; i <= gridLines; i++ {
		val := minVal + (maxVal-minVal)*float64(i)/float64(gridLines)
		y := py + ph - int(float64(ph)*float64(i)/float64(gridLines))
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-dasharray="3,3"/>`,
			px, y, px+pw, y, cfg.GridColor))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-5, y+4, cfg.FontSize, cfg.TextColor, axisLabel(val, maxVal-minVal)))
	}
}

func writeLegend(sb *strings.Builder, cfg ChartConfig, idx int, name, color string) {
	px, py, _, _ := cfg.plotArea()
	ly := py + 10 + idx*16
	sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="3"/>`,
		px+10, ly, px+30, ly, color))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="10" fill="%s">%s</text>`,
		px+35, ly+4, cfg.TextColor, escapeXML(name)))
}

func writeXLabels(sb *strings.Builder, cfg ChartConfig, labels []string, n int) {
	if len(labels) == 0 {
		return
	}
	_, py, _, ph := cfg.plotArea()
	interval := n / 6
	if interval < 1 {
		interval = 1
	}
	for i := 0; i < len(labels) && i < n; i += interval {
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
			cfg.xPos(i, n), py+ph+18, cfg.FontSize-1, cfg.TextColor, escapeXML(labels[i])))
	}
}

// axisLabel picks a precision that keeps neighbouring ticks distinct.
func axisLabel(v, span float64) string {
	switch {
	case span >= 100:
		return fmt.Sprintf("%.0f", v)
	case span >= 1:
		return fmt.Sprintf("%.1f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func emptySVG(cfg ChartConfig, msg string) string {
	if cfg.Width == 0 {
		cfg.Width = 400
	}
	if cfg.Height == 0 {
		cfg.Height = 200
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
