package handler

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admi-n/chainintel/src/internal/ai/parser"
	"github.com/admi-n/chainintel/src/internal/dataset"
)

func TestSummaryFromResult(t *testing.T) {
	w := &dataset.Wallet{
		Address:      "0xaaa1000000000000000000000000000000000001",
		ClusterID:    3,
		HasCluster:   true,
		AnomalyScore: 1,
		HasAnomaly:   true,
	}
	r := &parser.SummaryResult{
		Summary:     "Funds routed through a mixer.",
		Tag:         "Mixer Activity",
		RiskFactors: []string{"mixer"},
		RiskScore:   8.5,
	}

	sum := summaryFromResult(w, r)
	assert.Equal(t, "Funds routed through a mixer.", sum.Summary)
	assert.Equal(t, int64(3), sum.ClusterID)
	assert.True(t, sum.IsHighRisk())
	assert.Contains(t, sum.Extra, "tag")
	assert.Contains(t, sum.Extra, "risk_factors")
	assert.Contains(t, sum.Extra, "risk_score")

	// 空标签和零分不写入 Extra
	sum = summaryFromResult(&dataset.Wallet{Address: "0xbbb"}, &parser.SummaryResult{Summary: "ok"})
	assert.Empty(t, sum.Extra)
	assert.False(t, sum.HasCluster)
}

func TestWriteSummariesJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "wallet_summaries.json")
	addr := "0xaaa1000000000000000000000000000000000001"

	w := &dataset.Wallet{Address: addr, ClusterID: 3, HasCluster: true, AnomalyScore: 1, HasAnomaly: true}
	sum := summaryFromResult(w, &parser.SummaryResult{Summary: "Mixer exposure.", Tag: "Mixer Activity", RiskScore: 8})

	require.NoError(t, writeSummariesJSON(path, map[string]*dataset.Summary{addr: sum}))

	// 写回的文件可被数据集加载器读出
	snap, err := dataset.Load("", path)
	require.NoError(t, err)
	loaded, ok := snap.SummaryFor(addr)
	require.True(t, ok)
	assert.Equal(t, "Mixer exposure.", loaded.Summary)
	assert.Equal(t, int64(3), loaded.ClusterID)
	assert.True(t, loaded.IsHighRisk())
	assert.Contains(t, loaded.Extra, "tag")
}
