package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/admi-n/chainintel/src/internal/export"
	"github.com/admi-n/chainintel/src/internal/report"
)

// GET /export/cluster.csv?id=3 — 簇钱包导出
func (s *Server) handleExportCluster(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()

	raw := r.URL.Query().Get("id")
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

	// 先写入缓冲，失败时还能返回 JSON 错误
	var buf bytes.Buffer
	if err := export.WriteWalletsCSV(&buf, snap.Columns, rows); err != nil {
		s.writeError(w, http.StatusInternalServerError, "csv export failed: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.ClusterCSVName(id)))
	_, _ = w.Write(buf.Bytes())
}

// GET /export/anomalies.csv — 异常钱包导出
func (s *Server) handleExportAnomalies(w http.ResponseWriter, _ *http.Request) {
	snap := s.store.Snapshot()

	rows := snap.Anomalies()
	if len(rows) == 0 {
		s.writeError(w, http.StatusNotFound, "no high-risk wallets in dataset")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWalletsCSV(&buf, snap.Columns, rows); err != nil {
		s.writeError(w, http.StatusInternalServerError, "csv export failed: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.AnomaliesCSVName))
	_, _ = w.Write(buf.Bytes())
}

// GET /export/wallet.pdf?address=0x... — 单钱包取证报告
func (s *Server) handleExportWalletPDF(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()

	raw := r.URL.Query().Get("address")
	if raw == "" {
		s.writeError(w, http.StatusBadRequest, "missing wallet address")
		return
	}

	resolved, ok := snap.Resolve(raw)
	if !ok {
		s.writeError(w, http.StatusNotFound, "wallet not found: "+raw)
		return
	}

	wlt, found := snap.Lookup(resolved)
	if !found {
		s.writeError(w, http.StatusNotFound, "wallet not in dataset: "+resolved)
		return
	}
	sum, _ := snap.SummaryFor(resolved)

	finding := report.FindingFromWallet(wlt, sum)

	var buf bytes.Buffer
	if err := export.WalletPDF(&buf, export.WalletReportData(finding)); err != nil {
		s.writeError(w, http.StatusInternalServerError, "pdf export failed: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.WalletPDFName(wlt.Address)))
	_, _ = w.Write(buf.Bytes())
}

// GET /charts/clusters.png — 簇规模柱状图
func (s *Server) handleClusterChart(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()

	n := 10
	if v := r.URL.Query().Get("n"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			n = parsed
		}
	}

	counts := snap.TopClusters(n)
	if len(counts) == 0 {
		s.writeError(w, http.StatusNotFound, "no cluster data")
		return
	}

	var buf bytes.Buffer
	if err := export.ClusterBarChart(&buf, counts); err != nil {
		s.writeError(w, http.StatusInternalServerError, "chart render failed: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

// GET /charts/anomaly.png — 异常占比饼图
func (s *Server) handleAnomalyChart(w http.ResponseWriter, _ *http.Request) {
	snap := s.store.Snapshot()

	k := snap.KPIs()
	if k.TotalWallets == 0 {
		s.writeError(w, http.StatusNotFound, "no wallet data")
		return
	}

	var buf bytes.Buffer
	if err := export.AnomalyPieChart(&buf, k); err != nil {
		s.writeError(w, http.StatusInternalServerError, "chart render failed: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}
