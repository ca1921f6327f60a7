package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const sampleCSV = `wallet,tx_count,eth_value_sum,gas_price_avg,tx_entropy,cluster_id_x,cluster_id_y,anomaly_score_y
0xaaa1000000000000000000000000000000000001,120,45.5,23.1,3.2,old,3,1
0xaaa1000000000000000000000000000000000002,12.0,0.5,18.0,1.1,old,3,0
0xAAA1000000000000000000000000000000000001,999,999,999,999,old,9,1
0xaaa1000000000000000000000000000000000003,7,1.25,nan,,old,,
,5,1,1,1,old,1,1
`

func TestLoadCSV(t *testing.T) {
	csvPath := writeTempFile(t, "wallets.csv", sampleCSV)

	snap, err := Load(csvPath, "")
	require.NoError(t, err)

	// 重复地址保留首行，空地址行跳过
	require.Len(t, snap.Wallets, 3)
	assert.Equal(t, 1, snap.SkippedRows)

	// cluster_id_y 重命名为 cluster_id，*_x 列丢弃
	assert.Contains(t, snap.Columns, "cluster_id")
	assert.Contains(t, snap.Columns, "anomaly_score")
	assert.NotContains(t, snap.Columns, "cluster_id_y")
	assert.NotContains(t, snap.Columns, "cluster_id_x")

	w, ok := snap.Lookup("0xaaa1000000000000000000000000000000000001")
	require.True(t, ok)
	assert.Equal(t, int64(120), w.TxCount) // 首行胜出
	assert.Equal(t, 45.5, w.EthValueSum)
	assert.Equal(t, int64(3), w.ClusterID)
	assert.True(t, w.HasCluster)
	assert.True(t, w.IsHighRisk())

	// 浮点写法的计数列与空 cluster_id
	w, ok = snap.Lookup("0xaaa1000000000000000000000000000000000002")
	require.True(t, ok)
	assert.Equal(t, int64(12), w.TxCount)
	assert.False(t, w.IsHighRisk())

	w, ok = snap.Lookup("0xaaa1000000000000000000000000000000000003")
	require.True(t, ok)
	assert.Equal(t, float64(0), w.GasPriceAvg) // nan -> 0
	assert.False(t, w.HasCluster)
	assert.False(t, w.HasAnomaly)
	assert.Equal(t, "Low", w.RiskLevel())
}

func TestLoadMissingFiles(t *testing.T) {
	dir := t.TempDir()

	snap, err := Load(filepath.Join(dir, "absent.csv"), filepath.Join(dir, "absent.json"))
	require.NoError(t, err)
	assert.Empty(t, snap.Wallets)
	assert.Empty(t, snap.Summaries)
	assert.Equal(t, KPIs{}, snap.KPIs())
}

func TestLoadEmptyCSV(t *testing.T) {
	csvPath := writeTempFile(t, "empty.csv", "")

	snap, err := Load(csvPath, "")
	require.NoError(t, err)
	assert.Empty(t, snap.Wallets)
	assert.Empty(t, snap.Columns)
}

func TestLoadSummaries(t *testing.T) {
	jsonPath := writeTempFile(t, "summaries.json", `{
		"0xAAA1000000000000000000000000000000000001": {
			"summary": "High-volume wallet with mixer exposure.",
			"cluster_id": 3,
			"anomaly_score": 1,
			"tag": "Mixer Activity"
		},
		"0xaaa1000000000000000000000000000000000002": null
	}`)

	snap, err := Load("", jsonPath)
	require.NoError(t, err)

	require.Len(t, snap.Summaries, 1)
	s, ok := snap.SummaryFor("0xaaa1000000000000000000000000000000000001")
	require.True(t, ok)
	assert.Equal(t, "High-volume wallet with mixer exposure.", s.Summary)
	assert.True(t, s.IsHighRisk())
}

func TestLoadBrokenSummaries(t *testing.T) {
	jsonPath := writeTempFile(t, "broken.json", `{not json`)

	_, err := Load("", jsonPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load summaries json")
}

func TestStoreReloadKeepsOldSnapshotOnFailure(t *testing.T) {
	csvPath := writeTempFile(t, "wallets.csv", sampleCSV)
	jsonPath := filepath.Join(t.TempDir(), "summaries.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{}`), 0644))

	store, err := NewStore(func() (*Snapshot, error) {
		return Load(csvPath, jsonPath)
	})
	require.NoError(t, err)

	first := store.Snapshot()
	require.Len(t, first.Wallets, 3)

	// 摘要文件损坏后重载失败，旧快照保留
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{broken`), 0644))
	_, err = store.Reload()
	require.Error(t, err)
	assert.Same(t, first, store.Snapshot())

	// 修复后重载成功并替换快照
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{}`), 0644))
	second, err := store.Reload()
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Same(t, second, store.Snapshot())
}
