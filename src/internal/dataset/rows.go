package dataset

import (
	"strconv"
	"time"
)

// CanonicalColumns 数据库来源与空表导出时使用的规范列集
var CanonicalColumns = []string{
	"wallet",
	"tx_count",
	"eth_value_sum",
	"gas_price_avg",
	"tx_entropy",
	"cluster_id",
	"anomaly_score",
}

// SyncRaw 用类型化字段回填 Raw 视图（数据库来源的行没有原始 CSV 列值）
func (w *Wallet) SyncRaw() {
	if w.Raw == nil {
		w.Raw = make(map[string]string, len(CanonicalColumns))
	}
	w.Raw["wallet"] = w.Address
	w.Raw["tx_count"] = strconv.FormatInt(w.TxCount, 10)
	w.Raw["eth_value_sum"] = strconv.FormatFloat(w.EthValueSum, 'f', -1, 64)
	w.Raw["gas_price_avg"] = strconv.FormatFloat(w.GasPriceAvg, 'f', -1, 64)
	w.Raw["tx_entropy"] = strconv.FormatFloat(w.TxEntropy, 'f', -1, 64)
	if w.HasCluster {
		w.Raw["cluster_id"] = strconv.FormatInt(w.ClusterID, 10)
	} else {
		w.Raw["cluster_id"] = ""
	}
	if w.HasAnomaly {
		w.Raw["anomaly_score"] = strconv.Itoa(w.AnomalyScore)
	} else {
		w.Raw["anomaly_score"] = ""
	}
}

// SnapshotFromRows 从内存行构建快照（数据库来源）
func SnapshotFromRows(rows []Wallet, summaries map[string]*Summary) *Snapshot {
	for i := range rows {
		rows[i].SyncRaw()
	}
	if summaries == nil {
		summaries = make(map[string]*Summary)
	}
	snap := &Snapshot{
		Wallets:   rows,
		Columns:   CanonicalColumns,
		Summaries: summaries,
		LoadedAt:  time.Now(),
	}
	snap.buildIndex()
	return snap
}
