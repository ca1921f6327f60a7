package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() *Snapshot {
	snap := &Snapshot{Wallets: []Wallet{
		{Address: "0xaaa1000000000000000000000000000000000001", TxCount: 100, EthValueSum: 10, ClusterID: 1, HasCluster: true, AnomalyScore: 1, HasAnomaly: true},
		{Address: "0xaaa1000000000000000000000000000000000002", TxCount: 50, EthValueSum: 80, ClusterID: 1, HasCluster: true, AnomalyScore: 1, HasAnomaly: true},
		{Address: "0xaaa1000000000000000000000000000000000003", TxCount: 200, EthValueSum: 5, ClusterID: 2, HasCluster: true, AnomalyScore: 0, HasAnomaly: true},
		{Address: "0xaaa1000000000000000000000000000000000004", TxCount: 10, EthValueSum: 1, ClusterID: 3, HasCluster: true},
		{Address: "0xaaa1000000000000000000000000000000000005", TxCount: 5, EthValueSum: 2},
	}}
	snap.buildIndex()
	return snap
}

func TestKPIs(t *testing.T) {
	k := testSnapshot().KPIs()
	assert.Equal(t, 5, k.TotalWallets)
	assert.Equal(t, 2, k.Anomalies)
	assert.Equal(t, 3, k.Clusters)
	assert.InDelta(t, 40.0, k.AnomalyRate, 0.001)
}

func TestTopClusters(t *testing.T) {
	top := testSnapshot().TopClusters(2)
	require.Len(t, top, 2)
	assert.Equal(t, ClusterCount{ClusterID: 1, Wallets: 2}, top[0])
	// 并列时按 cluster_id 升序
	assert.Equal(t, ClusterCount{ClusterID: 2, Wallets: 1}, top[1])

	all := testSnapshot().TopClusters(0)
	assert.Len(t, all, 3)
}

func TestHighRiskSorts(t *testing.T) {
	snap := testSnapshot()

	byTx := snap.HighRiskByTx(10)
	require.Len(t, byTx, 2)
	assert.Equal(t, int64(100), byTx[0].TxCount)
	assert.Equal(t, int64(50), byTx[1].TxCount)

	byEth := snap.HighRiskByEth(1)
	require.Len(t, byEth, 1)
	assert.Equal(t, float64(80), byEth[0].EthValueSum)
}

func TestClusterWallets(t *testing.T) {
	snap := testSnapshot()
	assert.Len(t, snap.ClusterWallets(1), 2)
	assert.Len(t, snap.ClusterWallets(2), 1)
	assert.Empty(t, snap.ClusterWallets(99))
}

func TestAnomalies(t *testing.T) {
	assert.Len(t, testSnapshot().Anomalies(), 2)
}

func TestInsightMarkdown(t *testing.T) {
	snap := testSnapshot()

	md := snap.InsightMarkdown(InsightTopClusters, 3)
	assert.Contains(t, md, "Top 3 Clusters")
	assert.Contains(t, md, "**1** — 2 wallets")

	md = snap.InsightMarkdown(InsightHighRiskByTx, 5)
	assert.Contains(t, md, "High-Risk Wallets by Transactions")
	assert.Contains(t, md, snap.Wallets[0].Address)

	md = snap.InsightMarkdown(InsightHighRiskByEth, 5)
	assert.Contains(t, md, "High-Risk Wallets by ETH Sent")

	assert.Equal(t, "_Select an insight view._", snap.InsightMarkdown("bogus", 5))

	empty := &Snapshot{}
	assert.Equal(t, "_No data._", empty.InsightMarkdown(InsightTopClusters, 5))
	assert.Equal(t, "_No high-risk wallets detected._", empty.InsightMarkdown(InsightHighRiskByTx, 5))
}

func TestGenerateTag(t *testing.T) {
	assert.Equal(t, "Mixer Activity", GenerateTag("Funds routed through Tornado Cash."))
	assert.Equal(t, "Flash Loan, Contract Heavy", GenerateTag("Executed a flash loan via smart contract calls."))
	assert.Equal(t, "Dormant", GenerateTag("Mostly dormant with low activity."))
	assert.Equal(t, "High Entropy", GenerateTag("Counterparty set shows high entropy."))
	assert.Equal(t, "No Tag", GenerateTag("Nothing unusual."))
	assert.Equal(t, "No Tag", GenerateTag(""))
}
