package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// KPIs 看板头部的四个汇总指标
type KPIs struct {
	TotalWallets int     `json:"total_wallets"`
	Anomalies    int     `json:"anomalies"`
	Clusters     int     `json:"clusters"`
	AnomalyRate  float64 `json:"anomaly_rate"` // 百分比 0-100
}

// KPIs 计算汇总指标
func (s *Snapshot) KPIs() KPIs {
	k := KPIs{TotalWallets: len(s.Wallets)}

	clusterSet := make(map[int64]struct{})
	for i := range s.Wallets {
		w := &s.Wallets[i]
		if w.IsHighRisk() {
			k.Anomalies++
		}
		if w.HasCluster {
			clusterSet[w.ClusterID] = struct{}{}
		}
	}
	k.Clusters = len(clusterSet)

	if k.TotalWallets > 0 {
		k.AnomalyRate = float64(k.Anomalies) / float64(k.TotalWallets) * 100.0
	}
	return k
}

// ClusterCount 某个簇的钱包数
type ClusterCount struct {
	ClusterID int64 `json:"cluster_id"`
	Wallets   int   `json:"wallets"`
}

// TopClusters 按钱包数降序返回前 n 个簇
func (s *Snapshot) TopClusters(n int) []ClusterCount {
	counts := make(map[int64]int)
	for i := range s.Wallets {
		if s.Wallets[i].HasCluster {
			counts[s.Wallets[i].ClusterID]++
		}
	}

	out := make([]ClusterCount, 0, len(counts))
	for id, c := range counts {
		out = append(out, ClusterCount{ClusterID: id, Wallets: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Wallets != out[j].Wallets {
			return out[i].Wallets > out[j].Wallets
		}
		return out[i].ClusterID < out[j].ClusterID
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// highRiskSorted 异常钱包按 key 降序
func (s *Snapshot) highRiskSorted(less func(a, b *Wallet) bool, n int) []Wallet {
	var subset []Wallet
	for i := range s.Wallets {
		if s.Wallets[i].IsHighRisk() {
			subset = append(subset, s.Wallets[i])
		}
	}
	sort.SliceStable(subset, func(i, j int) bool {
		return less(&subset[i], &subset[j])
	})
	if n > 0 && len(subset) > n {
		subset = subset[:n]
	}
	return subset
}

// HighRiskByTx 异常钱包按交易数降序取前 n
func (s *Snapshot) HighRiskByTx(n int) []Wallet {
	return s.highRiskSorted(func(a, b *Wallet) bool { return a.TxCount > b.TxCount }, n)
}

// HighRiskByEth 异常钱包按 ETH 转出总量降序取前 n
func (s *Snapshot) HighRiskByEth(n int) []Wallet {
	return s.highRiskSorted(func(a, b *Wallet) bool { return a.EthValueSum > b.EthValueSum }, n)
}

// ClusterWallets 返回指定簇的全部钱包
func (s *Snapshot) ClusterWallets(clusterID int64) []Wallet {
	var out []Wallet
	for i := range s.Wallets {
		if s.Wallets[i].HasCluster && s.Wallets[i].ClusterID == clusterID {
			out = append(out, s.Wallets[i])
		}
	}
	return out
}

// Anomalies 返回全部被标记为异常的钱包
func (s *Snapshot) Anomalies() []Wallet {
	var out []Wallet
	for i := range s.Wallets {
		if s.Wallets[i].IsHighRisk() {
			out = append(out, s.Wallets[i])
		}
	}
	return out
}

// 洞察视图标识，与看板选项一一对应
const (
	InsightTopClusters   = "top-clusters"
	InsightHighRiskByTx  = "high-risk-tx"
	InsightHighRiskByEth = "high-risk-eth"
)

// InsightMarkdown 渲染指定洞察视图的 markdown 文本
func (s *Snapshot) InsightMarkdown(view string, n int) string {
	if n <= 0 {
		n = 10
	}
	switch view {
	case InsightTopClusters:
		return s.topClustersMarkdown(n)
	case InsightHighRiskByTx:
		return s.highRiskByTxMarkdown(n)
	case InsightHighRiskByEth:
		return s.highRiskByEthMarkdown(n)
	default:
		return "_Select an insight view._"
	}
}

func (s *Snapshot) topClustersMarkdown(n int) string {
	top := s.TopClusters(n)
	if len(top) == 0 {
		return "_No data._"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "### Top %d Clusters by Wallet Count\n", n)
	for _, c := range top {
		fmt.Fprintf(&b, "- **%d** — %d wallets\n", c.ClusterID, c.Wallets)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Snapshot) highRiskByTxMarkdown(n int) string {
	subset := s.HighRiskByTx(n)
	if len(subset) == 0 {
		return "_No high-risk wallets detected._"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "### High-Risk Wallets by Transactions (Top %d)\n", n)
	for i := range subset {
		w := &subset[i]
		fmt.Fprintf(&b, "- `%s` — TX: **%d**, ETH Sent: **%s**\n", w.Address, w.TxCount, Fmt4(w.EthValueSum))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Snapshot) highRiskByEthMarkdown(n int) string {
	subset := s.HighRiskByEth(n)
	if len(subset) == 0 {
		return "_No high-risk wallets detected._"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "### High-Risk Wallets by ETH Sent (Top %d)\n", n)
	for i := range subset {
		w := &subset[i]
		fmt.Fprintf(&b, "- `%s` — ETH Sent: **%s**, TX: **%d**\n", w.Address, Fmt4(w.EthValueSum), w.TxCount)
	}
	return strings.TrimRight(b.String(), "\n")
}

// GenerateTag 根据摘要文本生成行为标签
func GenerateTag(summary string) string {
	var tags []string
	s := strings.ToLower(summary)

	if strings.Contains(s, "mixer") || strings.Contains(s, "tornado") {
		tags = append(tags, "Mixer Activity")
	}
	if strings.Contains(s, "flash loan") {
		tags = append(tags, "Flash Loan")
	}
	if strings.Contains(s, "smart contract") {
		tags = append(tags, "Contract Heavy")
	}
	if strings.Contains(s, "low activity") || strings.Contains(s, "dormant") {
		tags = append(tags, "Dormant")
	}
	if strings.Contains(s, "high entropy") {
		tags = append(tags, "High Entropy")
	}

	if len(tags) == 0 {
		return "No Tag"
	}
	return strings.Join(tags, ", ")
}
