package dataset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletRiskLevel(t *testing.T) {
	w := Wallet{AnomalyScore: 1, HasAnomaly: true}
	assert.True(t, w.IsHighRisk())
	assert.Equal(t, "High", w.RiskLevel())

	w = Wallet{AnomalyScore: 0, HasAnomaly: true}
	assert.False(t, w.IsHighRisk())
	assert.Equal(t, "Low", w.RiskLevel())

	// anomaly_score 缺失的行不算高风险
	w = Wallet{AnomalyScore: 1, HasAnomaly: false}
	assert.False(t, w.IsHighRisk())
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "0x123456...abcdef", ShortID("0x1234567890000000000000000000000000abcdef"))
	assert.Equal(t, "0xabc", ShortID("0xabc")) // 短于阈值原样返回
	assert.Equal(t, "", ShortID(""))
}

func TestSummaryUnmarshalJSON(t *testing.T) {
	data := []byte(`{
		"summary": "Wallet interacted with a known mixer.",
		"cluster_id": 3.0,
		"anomaly_score": 1,
		"tag": "Mixer Activity",
		"risk_score": 8.5
	}`)

	var s Summary
	require.NoError(t, json.Unmarshal(data, &s))

	assert.Equal(t, "Wallet interacted with a known mixer.", s.Summary)
	assert.True(t, s.HasCluster)
	assert.Equal(t, int64(3), s.ClusterID)
	assert.True(t, s.HasAnomaly)
	assert.Equal(t, 1, s.AnomalyScore)
	assert.True(t, s.IsHighRisk())

	// 未知字段保留在 Extra，已提取字段不重复出现
	assert.Contains(t, s.Extra, "tag")
	assert.Contains(t, s.Extra, "risk_score")
	assert.NotContains(t, s.Extra, "summary")
	assert.NotContains(t, s.Extra, "cluster_id")
}

func TestSummaryPayloadRoundTrip(t *testing.T) {
	var s Summary
	require.NoError(t, json.Unmarshal([]byte(`{"summary":"x","cluster_id":7,"anomaly_score":0,"tag":"Dormant"}`), &s))

	payload, err := s.MarshalPayload()
	require.NoError(t, err)
	assert.NotContains(t, string(payload), `"summary"`) // 摘要文本单独存储

	restored, err := ParseSummaryPayload(payload)
	require.NoError(t, err)
	assert.Equal(t, int64(7), restored.ClusterID)
	assert.True(t, restored.HasCluster)
	assert.Equal(t, 0, restored.AnomalyScore)
	assert.True(t, restored.HasAnomaly)
	assert.Contains(t, restored.Extra, "tag")

	empty, err := ParseSummaryPayload(nil)
	require.NoError(t, err)
	assert.False(t, empty.HasCluster)
}

func TestWalletCleanView(t *testing.T) {
	w := Wallet{Raw: map[string]string{
		"wallet":        "0xabc",
		"tx_count":      "42",
		"cluster_id_x":  "9", // 合并残留列不展示
		"gas_price_avg": "nan",
		"note":          "",
		"tag":           "Dormant",
	}}

	view := w.CleanView()
	assert.Equal(t, "0xabc", view["wallet"])
	assert.Equal(t, float64(42), view["tx_count"])
	assert.Equal(t, "Dormant", view["tag"])
	assert.NotContains(t, view, "cluster_id_x")
	assert.NotContains(t, view, "gas_price_avg")
	assert.NotContains(t, view, "note")
}

func TestSummaryCleanView(t *testing.T) {
	var s Summary
	require.NoError(t, json.Unmarshal([]byte(`{
		"summary": "ok",
		"cluster_id": 2,
		"old_x": "legacy",
		"empty": "",
		"nanval": "NaN",
		"nilval": null,
		"risk_score": 4.5
	}`), &s))

	view := s.CleanView()
	assert.Equal(t, "ok", view["summary"])
	assert.Equal(t, int64(2), view["cluster_id"])
	assert.Equal(t, 4.5, view["risk_score"])
	assert.NotContains(t, view, "old_x")
	assert.NotContains(t, view, "empty")
	assert.NotContains(t, view, "nanval")
	assert.NotContains(t, view, "nilval")
}

func TestSnapshotResolve(t *testing.T) {
	snap := &Snapshot{Wallets: []Wallet{
		{Address: "0x1111567890000000000000000000000000abcdef"},
		{Address: "0x2222567890000000000000000000000000abcdef"},
	}}
	snap.buildIndex()

	// 精确匹配，大小写不敏感
	addr, ok := snap.Resolve("0x1111567890000000000000000000000000ABCDEF")
	require.True(t, ok)
	assert.Equal(t, snap.Wallets[0].Address, addr)

	// 短地址按前 8 字符前缀匹配
	addr, ok = snap.Resolve(ShortID(snap.Wallets[1].Address))
	require.True(t, ok)
	assert.Equal(t, snap.Wallets[1].Address, addr)

	// 数据集外的合法地址放行
	outside := "0x9999999999999999999999999999999999999999"
	addr, ok = snap.Resolve(outside)
	require.True(t, ok)
	assert.Equal(t, outside, addr)

	// 非法输入拒绝
	_, ok = snap.Resolve("not-an-address")
	assert.False(t, ok)
	_, ok = snap.Resolve("")
	assert.False(t, ok)
}

func TestSnapshotLookupAndAddresses(t *testing.T) {
	snap := &Snapshot{Wallets: []Wallet{
		{Address: "0xAAA1567890000000000000000000000000abcdef"},
		{Address: "0xBBB2567890000000000000000000000000abcdef"},
	}}
	snap.buildIndex()

	w, ok := snap.Lookup("  0xaaa1567890000000000000000000000000abcdef ")
	require.True(t, ok)
	assert.Equal(t, snap.Wallets[0].Address, w.Address)

	_, ok = snap.Lookup("0xmissing")
	assert.False(t, ok)

	assert.Equal(t, []string{snap.Wallets[0].Address, snap.Wallets[1].Address}, snap.Addresses())
}

func TestFmt4(t *testing.T) {
	assert.Equal(t, "1.5000", Fmt4(1.5))
	assert.Equal(t, "3.0000", Fmt4(3))
	assert.Equal(t, "2.2500", Fmt4("2.25"))
	assert.Equal(t, "hello", Fmt4("hello"))
}
