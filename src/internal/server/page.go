package server

import (
	"html/template"
	"net/http"
	"strconv"

	"github.com/admi-n/chainintel/src/internal/dataset"
)

// pageData 看板首页渲染数据
type pageData struct {
	KPIs     dataset.KPIs
	Source   string
	LoadedAt string
	Wallets  []walletRow
}

type walletRow struct {
	Address   string
	ShortID   string
	RiskLevel string
	TxCount   int64
	EthSent   string
	Cluster   string
	Tag       string
}

var pageTmpl = template.Must(template.New("app").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<link rel="manifest" href="/manifest.json">
<title>ChainIntel — Wallet Risk Intelligence</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 0; background: #0b0f19; color: #e5e9f0; }
header { padding: 18px 28px; border-bottom: 1px solid #1f2937; }
h1 { font-size: 20px; margin: 0; }
.sub { color: #8b96a8; font-size: 13px; margin-top: 4px; }
main { padding: 20px 28px; }
.kpis { display: flex; gap: 16px; flex-wrap: wrap; margin-bottom: 24px; }
.kpi { background: #121826; border: 1px solid #1f2937; border-radius: 8px; padding: 14px 20px; min-width: 150px; }
.kpi .v { font-size: 24px; font-weight: 600; }
.kpi .l { font-size: 12px; color: #8b96a8; margin-top: 2px; }
table { border-collapse: collapse; width: 100%; font-size: 13px; }
th, td { text-align: left; padding: 8px 12px; border-bottom: 1px solid #1f2937; }
th { color: #8b96a8; font-weight: 500; }
.high { color: #f87171; font-weight: 600; }
.low { color: #4ade80; }
a { color: #60a5fa; text-decoration: none; }
.charts { display: flex; gap: 16px; margin: 24px 0; flex-wrap: wrap; }
.charts img { background: #fff; border-radius: 8px; max-width: 100%; }
.links { margin: 16px 0; font-size: 13px; }
.links a { margin-right: 16px; }
</style>
</head>
<body>
<header>
<h1>ChainIntel — Wallet Risk Intelligence</h1>
<div class="sub">source: {{.Source}} · loaded {{.LoadedAt}}</div>
</header>
<main>
<div class="kpis">
<div class="kpi"><div class="v">{{.KPIs.TotalWallets}}</div><div class="l">Total Wallets</div></div>
<div class="kpi"><div class="v">{{.KPIs.Anomalies}}</div><div class="l">Anomalies</div></div>
<div class="kpi"><div class="v">{{.KPIs.Clusters}}</div><div class="l">Clusters</div></div>
<div class="kpi"><div class="v">{{printf "%.2f" .KPIs.AnomalyRate}}%</div><div class="l">Anomaly Rate</div></div>
</div>
{{if .Wallets}}
<div class="charts">
<img src="/charts/clusters.png" alt="Wallets per cluster" width="480">
<img src="/charts/anomaly.png" alt="Anomaly share" width="300">
</div>
<div class="links">
<a href="/export/anomalies.csv">⬇ high_risk_wallets.csv</a>
<a href="/api/insights?view=top-clusters">Top Clusters</a>
<a href="/api/insights?view=high-risk-tx">High-Risk by TX</a>
<a href="/api/insights?view=high-risk-eth">High-Risk by ETH</a>
</div>
<table>
<tr><th>Wallet</th><th>Risk</th><th>TX</th><th>ETH Sent</th><th>Cluster</th><th>Tag</th><th></th></tr>
{{range .Wallets}}
<tr>
<td><a href="/api/wallets/{{.Address}}" title="{{.Address}}">{{.ShortID}}</a></td>
<td class="{{if eq .RiskLevel "High"}}high{{else}}low{{end}}">{{.RiskLevel}}</td>
<td>{{.TxCount}}</td>
<td>{{.EthSent}}</td>
<td>{{.Cluster}}</td>
<td>{{.Tag}}</td>
<td><a href="/export/wallet.pdf?address={{.Address}}">PDF</a></td>
</tr>
{{end}}
</table>
{{else}}
<p>No wallet data loaded. Place the risk table CSV and summaries JSON at the configured paths and POST /api/reload.</p>
{{end}}
</main>
</body>
</html>
`))

// GET /app/ — 服务端渲染的看板页面
func (s *Server) handleApp(w http.ResponseWriter, _ *http.Request) {
	snap := s.store.Snapshot()

	const maxRows = 100
	rows := snap.Wallets
	if len(rows) > maxRows {
		rows = rows[:maxRows]
	}

	data := pageData{
		KPIs:     snap.KPIs(),
		Source:   s.source,
		LoadedAt: snap.LoadedAt.Format("2006-01-02 15:04:05"),
	}

	for i := range rows {
		wlt := &rows[i]
		row := walletRow{
			Address:   wlt.Address,
			ShortID:   dataset.ShortID(wlt.Address),
			RiskLevel: wlt.RiskLevel(),
			TxCount:   wlt.TxCount,
			EthSent:   dataset.Fmt4(wlt.EthValueSum),
		}
		if wlt.HasCluster {
			row.Cluster = strconv.FormatInt(wlt.ClusterID, 10)
		} else {
			row.Cluster = "N/A"
		}
		if sum, ok := snap.SummaryFor(wlt.Address); ok {
			row.Tag = dataset.GenerateTag(sum.Summary)
		}
		data.Wallets = append(data.Wallets, row)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
