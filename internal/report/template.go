package report

// reportTemplate is the HTML page for an aligned feature table.
const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --green: #16a34a;
    --red: #dc2626;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 900px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.5rem; margin-bottom: 4px; color: var(--accent); }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  .muted { color: var(--muted); font-size: 0.85rem; }
  .header { border-bottom: 3px solid var(--accent); padding-bottom: 12px; margin-bottom: 16px; }
  .symbol-badge {
    display: inline-block;
    background: var(--accent);
    color: white;
    padding: 2px 12px;
    border-radius: 4px;
    font-weight: 700;
    margin-right: 8px;
  }
  .stats {
    display: grid;
    grid-template-columns: repeat(auto-fill, minmax(160px, 1fr));
    gap: 8px;
    background: var(--section-bg);
    padding: 12px;
    border-radius: 8px;
  }
  .stat { text-align: center; }
  .stat .label { font-size: 0.75rem; color: var(--muted); text-transform: uppercase; }
  .stat .value { font-size: 1rem; font-weight: 600; }
  .positive { color: var(--green); }
  .negative { color: var(--red); }
  .chart { margin: 12px 0; text-align: center; }
  .chart svg { max-width: 100%; height: auto; border: 1px solid var(--border); border-radius: 6px; }
  table { width: 100%; border-collapse: collapse; font-size: 0.85rem; }
  th, td { padding: 4px 8px; border-bottom: 1px solid var(--border); text-align: right; }
  th:first-child, td:first-child { text-align: left; }
  .footer { margin-top: 24px; font-size: 0.75rem; color: var(--muted); text-align: center; }
</style>
</head>
<body>

<div class="header">
  <h1>{{.Title}}</h1>
  <p><span class="symbol-badge">{{.Symbol}}</span><span class="muted">{{.From}} to {{.To}} | generated {{.GeneratedAt}}</span></p>
</div>

<h2>Summary</h2>
<div class="stats">
  <div class="stat"><div class="label">Market rows</div><div class="value">{{.Summary.Rows}}</div></div>
  <div class="stat"><div class="label">Days with news</div><div class="value">{{.Summary.DaysWithNews}}</div></div>
  <div class="stat"><div class="label">Articles</div><div class="value">{{.Summary.TotalArticles}}</div></div>
  <div class="stat"><div class="label">Mean sentiment</div><div class="value {{.SentimentClass}}">{{.MeanSentiment}}</div></div>
  <div class="stat"><div class="label">Price change</div><div class="value {{.ChangeClass}}">{{.PriceChange}}</div></div>
  <div class="stat"><div class="label">Return / sentiment corr.</div><div class="value">{{.Correlation}}</div></div>
</div>

<h2>Price</h2>
<div class="chart">{{.PriceChart}}</div>

<h2>News Sentiment</h2>
<div class="chart">{{.NewsChart}}</div>

{{if .TopDays}}
<h2>Busiest News Days</h2>
<table>
  <tr><th>Day</th><th>Articles</th><th>Sentiment</th><th>Close</th></tr>
  {{range .TopDays}}
  <tr><td>{{.Day}}</td><td>{{.Count}}</td><td>{{.Sentiment}}</td><td>{{.Close}}</td></tr>
  {{end}}
</table>
{{end}}

<div class="footer">news2alpha | daily news sentiment aligned to market bars</div>
</body>
</html>
`
