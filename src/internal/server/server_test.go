package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admi-n/chainintel/src/internal/dataset"
)

const (
	addrHighRisk = "0xaaa1000000000000000000000000000000000001"
	addrLowRisk  = "0xbbb2000000000000000000000000000000000002"
	addrNoSum    = "0xccc3000000000000000000000000000000000003"
)

func fixtureSnapshot() *dataset.Snapshot {
	rows := []dataset.Wallet{
		{Address: addrHighRisk, TxCount: 120, EthValueSum: 45.5, GasPriceAvg: 23.1, TxEntropy: 3.2, ClusterID: 3, HasCluster: true, AnomalyScore: 1, HasAnomaly: true},
		{Address: addrLowRisk, TxCount: 12, EthValueSum: 0.5, GasPriceAvg: 18, TxEntropy: 1.1, ClusterID: 3, HasCluster: true, AnomalyScore: 0, HasAnomaly: true},
		{Address: addrNoSum, TxCount: 300, EthValueSum: 80, GasPriceAvg: 30, TxEntropy: 2.5, ClusterID: 7, HasCluster: true, AnomalyScore: 1, HasAnomaly: true},
	}

	var sum dataset.Summary
	_ = json.Unmarshal([]byte(`{"summary":"Funds routed through a mixer.","cluster_id":3,"anomaly_score":1}`), &sum)

	return dataset.SnapshotFromRows(rows, map[string]*dataset.Summary{
		addrHighRisk: &sum,
	})
}

// newTestServer 返回基于固定数据集的测试服务，loadErr 控制重载是否失败
func newTestServer(t *testing.T) (*Server, *bool) {
	t.Helper()

	failReload := false
	store, err := dataset.NewStore(func() (*dataset.Snapshot, error) {
		if failReload {
			return nil, fmt.Errorf("source unavailable")
		}
		return fixtureSnapshot(), nil
	})
	require.NoError(t, err)

	return NewServer(":0", store, "file", false), &failReload
}

func doRequest(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeJSON(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "file", body["source"])
	assert.Equal(t, float64(3), body["wallets"])
	assert.Equal(t, float64(1), body["summaries"])
}

func TestRootRedirect(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/app/", rec.Header().Get("Location"))

	rec = doRequest(t, s, http.MethodGet, "/no-such-page")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOverview(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/overview")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeJSON(t, rec)
	kpis, ok := body["kpis"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(3), kpis["total_wallets"])
	assert.Equal(t, float64(2), kpis["anomalies"])
	assert.Equal(t, float64(2), kpis["clusters"])
}

func TestInsights(t *testing.T) {
	s, _ := newTestServer(t)

	// 默认视图为 top-clusters
	rec := doRequest(t, s, http.MethodGet, "/api/insights")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, "top-clusters", body["view"])
	assert.Contains(t, body["markdown"], "Clusters")
	assert.NotNil(t, body["clusters"])

	rec = doRequest(t, s, http.MethodGet, "/api/insights?view=high-risk-tx&n=1")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeJSON(t, rec)
	wallets, ok := body["wallets"].([]interface{})
	require.True(t, ok)
	require.Len(t, wallets, 1)
	entry := wallets[0].(map[string]interface{})
	assert.Equal(t, addrNoSum, entry["address"]) // tx 最多的高风险钱包

	rec = doRequest(t, s, http.MethodGet, "/api/insights?view=bogus")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWalletsFilters(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/wallets")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), decodeJSON(t, rec)["count"])

	rec = doRequest(t, s, http.MethodGet, "/api/wallets?risk=high")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), decodeJSON(t, rec)["count"])

	rec = doRequest(t, s, http.MethodGet, "/api/wallets?cluster=3&risk=low")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	require.Equal(t, float64(1), body["count"])
	entry := body["wallets"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, addrLowRisk, entry["address"])
	assert.Equal(t, "Low", entry["risk_level"])

	rec = doRequest(t, s, http.MethodGet, "/api/wallets?sort=tx_count&order=asc&limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeJSON(t, rec)
	wallets := body["wallets"].([]interface{})
	require.Len(t, wallets, 2)
	assert.Equal(t, addrLowRisk, wallets[0].(map[string]interface{})["address"])
	assert.Equal(t, addrHighRisk, wallets[1].(map[string]interface{})["address"])

	// 默认降序
	rec = doRequest(t, s, http.MethodGet, "/api/wallets?sort=eth_value_sum&limit=1")
	body = decodeJSON(t, rec)
	assert.Equal(t, addrNoSum, body["wallets"].([]interface{})[0].(map[string]interface{})["address"])

	for _, target := range []string{
		"/api/wallets?cluster=abc",
		"/api/wallets?risk=medium",
		"/api/wallets?sort=nonsense",
	} {
		rec = doRequest(t, s, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestWalletDetail(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/wallets/"+addrHighRisk)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, addrHighRisk, body["address"])
	assert.Equal(t, "High", body["risk_level"])
	assert.Equal(t, "Mixer Activity", body["tag"])

	// 短地址解析
	rec = doRequest(t, s, http.MethodGet, "/api/wallets/"+dataset.ShortID(addrLowRisk))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, addrLowRisk, decodeJSON(t, rec)["address"])

	// 合法但不在数据集中的地址返回空状态
	outside := "0x9999999999999999999999999999999999999999"
	rec = doRequest(t, s, http.MethodGet, "/api/wallets/"+outside)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeJSON(t, rec)
	assert.Equal(t, "Unknown", body["risk_level"])
	assert.Empty(t, body["fields"])

	rec = doRequest(t, s, http.MethodGet, "/api/wallets/garbage")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSummaryEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/summary/"+addrHighRisk)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	sum := body["summary"].(map[string]interface{})
	assert.Equal(t, "Funds routed through a mixer.", sum["summary"])
	assert.Equal(t, "Mixer Activity", body["tag"])
	assert.Contains(t, body["markdown"], "GPT Forensic Summary")

	rec = doRequest(t, s, http.MethodGet, "/api/summary/"+addrNoSum)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/summary/garbage")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClusterEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/clusters/3")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, float64(2), body["count"])

	rec = doRequest(t, s, http.MethodGet, "/api/clusters/99")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/clusters/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReload(t *testing.T) {
	s, failReload := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/reload")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = doRequest(t, s, http.MethodPost, "/api/reload")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "reloaded", decodeJSON(t, rec)["status"])

	*failReload = true
	rec = doRequest(t, s, http.MethodPost, "/api/reload")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// 失败后旧快照仍可用
	rec = doRequest(t, s, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExportClusterCSV(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/export/cluster.csv?id=3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "cluster_3_wallets.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3) // 表头 + 簇内 2 行
	assert.Equal(t, strings.Join(dataset.CanonicalColumns, ","), strings.TrimSpace(lines[0]))
	assert.Contains(t, rec.Body.String(), addrHighRisk)
	assert.Contains(t, rec.Body.String(), addrLowRisk)

	rec = doRequest(t, s, http.MethodGet, "/export/cluster.csv?id=99")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/export/cluster.csv")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportAnomaliesCSV(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/export/anomalies.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "high_risk_wallets.csv")
	assert.Contains(t, rec.Body.String(), addrHighRisk)
	assert.Contains(t, rec.Body.String(), addrNoSum)
	assert.NotContains(t, rec.Body.String(), addrLowRisk)
}

func TestExportWalletPDF(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/export/wallet.pdf?address="+addrHighRisk)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

	rec = doRequest(t, s, http.MethodGet, "/export/wallet.pdf?address=garbage")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/export/wallet.pdf")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCharts(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/charts/clusters.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())

	rec = doRequest(t, s, http.MethodGet, "/charts/anomaly.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
}

func TestAppPage(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/app/")
	require.Equal(t, http.StatusOK, rec.Code)
	html := rec.Body.String()
	assert.Contains(t, html, "ChainIntel")
	assert.Contains(t, html, dataset.ShortID(addrHighRisk))
	assert.Contains(t, html, "/export/anomalies.csv")
}
