package server

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/admi-n/chainintel/src/internal/dataset"
	"github.com/admi-n/chainintel/src/internal/report"
)

// Server 钱包风险看板的 HTTP 服务
type Server struct {
	httpServer *http.Server
	store      *dataset.Store
	source     string // file | db
	startedAt  time.Time
	verbose    bool
}

// NewServer 创建看板服务并注册路由
func NewServer(addr string, store *dataset.Store, source string, verbose bool) *Server {
	s := &Server{
		store:     store,
		source:    source,
		startedAt: time.Now(),
		verbose:   verbose,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/manifest.json", s.handleManifest)
	mux.HandleFunc("/app/", s.handleApp)
	mux.HandleFunc("/api/overview", s.handleOverview)
	mux.HandleFunc("/api/insights", s.handleInsights)
	mux.HandleFunc("/api/wallets", s.handleWallets)
	mux.HandleFunc("/api/wallets/", s.handleWalletDetail)
	mux.HandleFunc("/api/summary/", s.handleSummary)
	mux.HandleFunc("/api/clusters/", s.handleCluster)
	mux.HandleFunc("/api/reload", s.handleReload)
	mux.HandleFunc("/export/cluster.csv", s.handleExportCluster)
	mux.HandleFunc("/export/anomalies.csv", s.handleExportAnomalies)
	mux.HandleFunc("/export/wallet.pdf", s.handleExportWalletPDF)
	mux.HandleFunc("/charts/clusters.png", s.handleClusterChart)
	mux.HandleFunc("/charts/anomaly.png", s.handleAnomalyChart)

	var handler http.Handler = mux
	if verbose {
		handler = requestLogger(mux)
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// requestLogger 记录每个请求的方法、路径和耗时（-v 时启用）
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// Start 开始监听并在后台提供服务
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	log.Printf("dashboard server listening on %s", s.httpServer.Addr)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("dashboard server: %v", err)
		}
	}()
	return nil
}

// Shutdown 优雅停止服务
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// GET / — 跳转到看板页面
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	http.Redirect(w, r, "/app/", http.StatusFound)
}

// GET /health — 服务与数据集状态
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	snap := s.store.Snapshot()
	s.writeJSON(w, map[string]interface{}{
		"status":       "ok",
		"source":       s.source,
		"uptime_s":     time.Since(s.startedAt).Seconds(),
		"wallets":      len(snap.Wallets),
		"summaries":    len(snap.Summaries),
		"loaded_at":    snap.LoadedAt,
		"skipped_rows": snap.SkippedRows,
	})
}

// GET /manifest.json — PWA manifest
func (s *Server) handleManifest(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"name":             "ChainIntel",
		"short_name":       "ChainIntel",
		"start_url":        "/app/",
		"display":          "standalone",
		"background_color": "#0b0f19",
		"theme_color":      "#0b0f19",
		"icons":            []interface{}{},
	})
}

// GET /api/overview — 头部 KPI 指标
func (s *Server) handleOverview(w http.ResponseWriter, _ *http.Request) {
	snap := s.store.Snapshot()
	s.writeJSON(w, map[string]interface{}{
		"kpis":      snap.KPIs(),
		"source":    s.source,
		"loaded_at": snap.LoadedAt,
	})
}

// GET /api/insights?view=top-clusters|high-risk-tx|high-risk-eth&n=10
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	view := r.URL.Query().Get("view")
	if view == "" {
		view = dataset.InsightTopClusters
	}
	switch view {
	case dataset.InsightTopClusters, dataset.InsightHighRiskByTx, dataset.InsightHighRiskByEth:
	default:
		s.writeError(w, http.StatusBadRequest, "unknown insight view: "+view)
		return
	}

	n := 10
	if v := r.URL.Query().Get("n"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			n = parsed
		}
	}

	resp := map[string]interface{}{
		"view":     view,
		"markdown": snap.InsightMarkdown(view, n),
	}
	switch view {
	case dataset.InsightTopClusters:
		resp["clusters"] = snap.TopClusters(n)
	case dataset.InsightHighRiskByTx:
		resp["wallets"] = walletEntries(snap.HighRiskByTx(n), snap)
	case dataset.InsightHighRiskByEth:
		resp["wallets"] = walletEntries(snap.HighRiskByEth(n), snap)
	}
	s.writeJSON(w, resp)
}

// walletEntry 列表视图的一行
type walletEntry struct {
	Address   string                 `json:"address"`
	ShortID   string                 `json:"short_id"`
	RiskLevel string                 `json:"risk_level"`
	Fields    map[string]interface{} `json:"fields"`
	Tag       string                 `json:"tag,omitempty"`
}

func walletEntries(rows []dataset.Wallet, snap *dataset.Snapshot) []walletEntry {
	entries := make([]walletEntry, len(rows))
	for i := range rows {
		w := &rows[i]
		e := walletEntry{
			Address:   w.Address,
			ShortID:   dataset.ShortID(w.Address),
			RiskLevel: w.RiskLevel(),
			Fields:    w.CleanView(),
		}
		if sum, ok := snap.SummaryFor(w.Address); ok {
			e.Tag = dataset.GenerateTag(sum.Summary)
		}
		entries[i] = e
	}
	return entries
}

// GET /api/wallets?cluster=3&risk=high&sort=tx_count&order=desc&limit=100
func (s *Server) handleWallets(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	q := r.URL.Query()

	rows := snap.Wallets

	if v := q.Get("cluster"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid cluster id: "+v)
			return
		}
		rows = snap.ClusterWallets(id)
	}

	switch strings.ToLower(q.Get("risk")) {
	case "", "all":
	case "high":
		rows = filterRisk(rows, true)
	case "low":
		rows = filterRisk(rows, false)
	default:
		s.writeError(w, http.StatusBadRequest, "invalid risk filter (use high, low or all)")
		return
	}

	sortKey := q.Get("sort")
	if sortKey != "" {
		less, ok := walletLess(sortKey)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "invalid sort key: "+sortKey)
			return
		}
		desc := strings.ToLower(q.Get("order")) != "asc"
		sorted := make([]dataset.Wallet, len(rows))
		copy(sorted, rows)
		sort.SliceStable(sorted, func(i, j int) bool {
			if desc {
				return less(&sorted[j], &sorted[i])
			}
			return less(&sorted[i], &sorted[j])
		})
		rows = sorted
	}

	limit := 0
	if v := q.Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	s.writeJSON(w, map[string]interface{}{
		"wallets": walletEntries(rows, snap),
		"count":   len(rows),
	})
}

func filterRisk(rows []dataset.Wallet, high bool) []dataset.Wallet {
	var out []dataset.Wallet
	for i := range rows {
		if rows[i].IsHighRisk() == high {
			out = append(out, rows[i])
		}
	}
	return out
}

// walletLess 返回排序比较函数（升序）
func walletLess(key string) (func(a, b *dataset.Wallet) bool, bool) {
	switch key {
	case "tx_count":
		return func(a, b *dataset.Wallet) bool { return a.TxCount < b.TxCount }, true
	case "eth_value_sum":
		return func(a, b *dataset.Wallet) bool { return a.EthValueSum < b.EthValueSum }, true
	case "gas_price_avg":
		return func(a, b *dataset.Wallet) bool { return a.GasPriceAvg < b.GasPriceAvg }, true
	case "tx_entropy":
		return func(a, b *dataset.Wallet) bool { return a.TxEntropy < b.TxEntropy }, true
	case "anomaly_score":
		return func(a, b *dataset.Wallet) bool { return a.AnomalyScore < b.AnomalyScore }, true
	default:
		return nil, false
	}
}

// GET /api/wallets/{address} — 单钱包详情
func (s *Server) handleWalletDetail(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	raw := strings.TrimPrefix(r.URL.Path, "/api/wallets/")
	if raw == "" {
		s.writeError(w, http.StatusBadRequest, "missing wallet address")
		return
	}

	resolved, ok := snap.Resolve(raw)
	if !ok {
		s.writeError(w, http.StatusNotFound, "wallet not found: "+raw)
		return
	}

	resp := map[string]interface{}{
		"address":  resolved,
		"short_id": dataset.ShortID(resolved),
	}

	// 合法地址但不在数据集中：返回空状态而不是 500
	wlt, found := snap.Lookup(resolved)
	if found {
		resp["risk_level"] = wlt.RiskLevel()
		resp["fields"] = wlt.CleanView()
	} else {
		resp["risk_level"] = "Unknown"
		resp["fields"] = map[string]interface{}{}
	}

	if sum, ok := snap.SummaryFor(resolved); ok {
		resp["summary"] = sum.CleanView()
		resp["tag"] = dataset.GenerateTag(sum.Summary)
	}

	s.writeJSON(w, resp)
}

// GET /api/summary/{address} — 单钱包 GPT 摘要
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	raw := strings.TrimPrefix(r.URL.Path, "/api/summary/")
	if raw == "" {
		s.writeError(w, http.StatusBadRequest, "missing wallet address")
		return
	}

	resolved, ok := snap.Resolve(raw)
	if !ok {
		s.writeError(w, http.StatusNotFound, "wallet not found: "+raw)
		return
	}

	sum, ok := snap.SummaryFor(resolved)
	if !ok {
		s.writeError(w, http.StatusNotFound, "no summary for wallet: "+resolved)
		return
	}

	var finding report.WalletFinding
	if wlt, found := snap.Lookup(resolved); found {
		finding = report.FindingFromWallet(wlt, sum)
	} else {
		finding = report.WalletFinding{
			Address:   resolved,
			Summary:   sum.Summary,
			Tag:       dataset.GenerateTag(sum.Summary),
			RiskLevel: "Unknown",
		}
	}

	s.writeJSON(w, map[string]interface{}{
		"address":  resolved,
		"short_id": dataset.ShortID(resolved),
		"summary":  sum.CleanView(),
		"tag":      dataset.GenerateTag(sum.Summary),
		"markdown": report.RenderSummaryCard(&finding),
	})
}

// GET /api/clusters/{id} — 簇内钱包列表
func (s *Server) handleCluster(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	raw := strings.TrimPrefix(r.URL.Path, "/api/clusters/")
	if raw == "" {
		s.writeError(w, http.StatusBadRequest, "missing cluster id")
		return
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid cluster id: "+raw)
		return
	}

	rows := snap.ClusterWallets(id)
	if len(rows) == 0 {
		s.writeError(w, http.StatusNotFound, "cluster not found: "+raw)
		return
	}

	s.writeJSON(w, map[string]interface{}{
		"cluster_id": id,
		"wallets":    walletEntries(rows, snap),
		"count":      len(rows),
	})
}

// POST /api/reload — 重新加载数据集
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	snap, err := s.store.Reload()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "reload failed: "+err.Error())
		return
	}

	s.writeJSON(w, map[string]interface{}{
		"status":    "reloaded",
		"wallets":   len(snap.Wallets),
		"summaries": len(snap.Summaries),
		"kpis":      snap.KPIs(),
		"loaded_at": snap.LoadedAt,
	})
}
