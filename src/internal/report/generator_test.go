package report

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admi-n/chainintel/src/internal/dataset"
)

func TestFindingFromWallet(t *testing.T) {
	w := &dataset.Wallet{
		Address:      "0xaaa1000000000000000000000000000000000001",
		TxCount:      120,
		EthValueSum:  45.5,
		ClusterID:    3,
		HasCluster:   true,
		AnomalyScore: 1,
		HasAnomaly:   true,
	}
	var sum dataset.Summary
	require.NoError(t, json.Unmarshal([]byte(`{"summary":"Funds routed through a mixer."}`), &sum))

	f := FindingFromWallet(w, &sum)
	assert.Equal(t, "High", f.RiskLevel)
	assert.Equal(t, "3", f.ClusterID)
	assert.Equal(t, "45.5000", f.EthSent)
	assert.Equal(t, "120", f.TxCount)
	assert.Equal(t, "Mixer Activity", f.Tag)
	assert.Equal(t, "Funds routed through a mixer.", f.Summary)

	// cluster/anomaly 缺失与无摘要的回退
	f = FindingFromWallet(&dataset.Wallet{Address: "0xbbb", TxCount: 1}, nil)
	assert.Equal(t, "Low", f.RiskLevel)
	assert.Equal(t, "N/A", f.ClusterID)
	assert.Equal(t, "N/A", f.AnomalyScore)
	assert.Equal(t, "No Tag", f.Tag)
}

func TestMarkdownGenerator(t *testing.T) {
	rep := NewReport("cluster_3", "file")
	rep.KPIs = dataset.KPIs{TotalWallets: 10, Anomalies: 4, Clusters: 2, AnomalyRate: 40}
	rep.Insights = append(rep.Insights, "### Top Clusters\n- **3** — 2 wallets")
	rep.AddFinding(WalletFinding{
		Address:   "0xaaa",
		RiskLevel: "High",
		ClusterID: "3",
		EthSent:   "45.5000",
		TxCount:   "120",
		Tag:       "Mixer Activity",
		Summary:   "Funds routed through a mixer.",
	})
	rep.AddFinding(WalletFinding{Address: "0xbbb", RiskLevel: "Low"})

	content, err := NewMarkdownGenerator().Generate(rep)
	require.NoError(t, err)

	assert.Contains(t, content, "# ChainIntel Wallet Risk Report") // 默认标题
	assert.Contains(t, content, "**Scope**: cluster_3")
	assert.Contains(t, content, "- **Anomaly Rate**: 40.0%")
	assert.Contains(t, content, "### Top Clusters")
	assert.Contains(t, content, "etherscan.io/address/0xaaa")
	assert.Contains(t, content, "🔴 High")
	assert.Contains(t, content, "🟢 Low")
	assert.Contains(t, content, "\n---\n") // 多条钱包之间的分隔线

	_, err = NewMarkdownGenerator().Generate(nil)
	assert.Error(t, err)
}

func TestRenderWalletCard(t *testing.T) {
	card := RenderWalletCard(&WalletFinding{Address: "0xaaa", RiskLevel: "High"})
	assert.Contains(t, card, "**Cluster ID:** `N/A`")
	assert.NotContains(t, card, "Insight") // 无摘要无标签时省略摘要段

	card = RenderWalletCard(&WalletFinding{Address: "0xaaa", RiskLevel: "High", Tag: "Dormant"})
	assert.Contains(t, card, "**Tag:** Dormant")
	assert.Contains(t, card, "No GPT summary available.")
}

func TestReporterGenerateAndSave(t *testing.T) {
	dir := t.TempDir()

	rep := NewReport("anomalies", "file")
	rep.AddFinding(WalletFinding{Address: "0xaaa", RiskLevel: "High"})

	path, err := NewReporter(NewMarkdownGenerator(), NewFileStorage(dir)).GenerateAndSave(rep)
	require.NoError(t, err)
	assert.Contains(t, path, "wallet_report_anomalies_")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# ChainIntel Wallet Risk Report"))
}
