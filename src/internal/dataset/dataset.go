package dataset

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Wallet 一行钱包风险记录（来自离线管线产出的风险表）
type Wallet struct {
	Address     string
	TxCount     int64
	EthValueSum float64
	GasPriceAvg float64
	TxEntropy   float64

	// cluster_id / anomaly_score 在部分行中缺失，用布尔位区分零值与缺失
	ClusterID  int64
	HasCluster bool

	AnomalyScore int // 1 = 异常（Isolation Forest 标记）
	HasAnomaly   bool

	// Raw 保留 CSV 原始列值，供 JSON 视图与导出使用
	Raw map[string]string
}

// IsHighRisk 是否被离线管线标记为异常
func (w *Wallet) IsHighRisk() bool {
	return w.HasAnomaly && w.AnomalyScore == 1
}

// RiskLevel 返回 High / Low
func (w *Wallet) RiskLevel() string {
	if w.IsHighRisk() {
		return "High"
	}
	return "Low"
}

// Summary 一条钱包的 GPT 取证摘要（来自 wallet_summaries.json）
type Summary struct {
	Summary string

	ClusterID  int64
	HasCluster bool

	AnomalyScore int
	HasAnomaly   bool

	// Extra 保留摘要 JSON 中的其余字段
	Extra map[string]json.RawMessage
}

// UnmarshalJSON 解析摘要对象，已知字段提取，其余进 Extra
func (s *Summary) UnmarshalJSON(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw["summary"]; ok {
		var text string
		if err := json.Unmarshal(v, &text); err == nil {
			s.Summary = text
		}
		delete(raw, "summary")
	}
	if v, ok := raw["cluster_id"]; ok {
		var f float64
		if err := json.Unmarshal(v, &f); err == nil {
			s.ClusterID = int64(f)
			s.HasCluster = true
			delete(raw, "cluster_id")
		}
	}
	if v, ok := raw["anomaly_score"]; ok {
		var f float64
		if err := json.Unmarshal(v, &f); err == nil {
			s.AnomalyScore = int(f)
			s.HasAnomaly = true
			delete(raw, "anomaly_score")
		}
	}

	s.Extra = raw
	return nil
}

// MarshalPayload 序列化除 summary 文本以外的字段（数据库存储用）
func (s *Summary) MarshalPayload() ([]byte, error) {
	out := make(map[string]interface{}, len(s.Extra)+2)
	for k, v := range s.Extra {
		out[k] = v
	}
	if s.HasCluster {
		out["cluster_id"] = s.ClusterID
	}
	if s.HasAnomaly {
		out["anomaly_score"] = s.AnomalyScore
	}
	return json.Marshal(out)
}

// ParseSummaryPayload 从数据库 payload 还原 Summary（不含 summary 文本）
func ParseSummaryPayload(data []byte) (*Summary, error) {
	if len(data) == 0 {
		return &Summary{}, nil
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse summary payload: %w", err)
	}
	return &s, nil
}

// IsHighRisk 摘要侧的异常标记
func (s *Summary) IsHighRisk() bool {
	return s.HasAnomaly && s.AnomalyScore == 1
}

// Snapshot 一次加载的不可变数据集视图。重载时整体替换。
type Snapshot struct {
	Wallets   []Wallet
	Columns   []string            // 规范化后的 CSV 列顺序
	Summaries map[string]*Summary // key 为小写地址
	LoadedAt  time.Time

	SkippedRows int // 加载时跳过的畸形行数

	index map[string]int // 小写地址 -> Wallets 下标
}

// buildIndex 构建地址索引（加载完成后调用一次）
func (s *Snapshot) buildIndex() {
	s.index = make(map[string]int, len(s.Wallets))
	for i := range s.Wallets {
		key := strings.ToLower(s.Wallets[i].Address)
		if _, ok := s.index[key]; !ok {
			s.index[key] = i
		}
	}
}

// Lookup 按地址精确查找（大小写不敏感）
func (s *Snapshot) Lookup(address string) (*Wallet, bool) {
	i, ok := s.index[strings.ToLower(strings.TrimSpace(address))]
	if !ok {
		return nil, false
	}
	return &s.Wallets[i], true
}

// SummaryFor 按地址查找摘要
func (s *Snapshot) SummaryFor(address string) (*Summary, bool) {
	sum, ok := s.Summaries[strings.ToLower(strings.TrimSpace(address))]
	return sum, ok
}

// Addresses 返回去重后的地址列表（保持加载顺序）
func (s *Snapshot) Addresses() []string {
	out := make([]string, 0, len(s.Wallets))
	seen := make(map[string]struct{}, len(s.Wallets))
	for i := range s.Wallets {
		key := strings.ToLower(s.Wallets[i].Address)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s.Wallets[i].Address)
	}
	return out
}

// ShortID 生成下拉列表用的短地址形式，例如 0x123456...abcdef
func ShortID(address string) string {
	if len(address) < 14 {
		return address
	}
	return address[:8] + "..." + address[len(address)-6:]
}

// Resolve 将短地址或完整地址解析为数据集内的地址。
// 解析顺序与原始看板一致：精确匹配 -> 前 8 字符前缀匹配 -> 合法 hex 地址直接放行。
func (s *Snapshot) Resolve(shortOrFull string) (string, bool) {
	q := strings.TrimSpace(shortOrFull)
	if q == "" {
		return "", false
	}

	if w, ok := s.Lookup(q); ok {
		return w.Address, true
	}

	lower := strings.ToLower(q)
	for i := range s.Wallets {
		addr := strings.ToLower(s.Wallets[i].Address)
		if len(addr) >= 8 && strings.HasPrefix(lower, addr[:8]) {
			return s.Wallets[i].Address, true
		}
	}

	// 不在数据集中但语法合法的地址放行，由调用方给出空状态
	if common.IsHexAddress(q) {
		return q, true
	}

	return "", false
}

// CleanView 返回展示用的字段映射：去掉 *_x 列、空值与 NaN，数字尽量转为数值
func (w *Wallet) CleanView() map[string]interface{} {
	out := make(map[string]interface{}, len(w.Raw))
	for k, v := range w.Raw {
		if strings.HasSuffix(k, "_x") {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" || strings.EqualFold(v, "nan") {
			continue
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			out[k] = f
			continue
		}
		out[k] = v
	}
	return out
}

// CleanView 摘要的展示用字段映射
func (s *Summary) CleanView() map[string]interface{} {
	out := make(map[string]interface{}, len(s.Extra)+3)
	for k, v := range s.Extra {
		if strings.HasSuffix(k, "_x") {
			continue
		}
		var decoded interface{}
		if err := json.Unmarshal(v, &decoded); err != nil {
			continue
		}
		if decoded == nil {
			continue
		}
		if str, ok := decoded.(string); ok && (str == "" || strings.EqualFold(str, "nan")) {
			continue
		}
		out[k] = decoded
	}
	if s.Summary != "" {
		out["summary"] = s.Summary
	}
	if s.HasCluster {
		out["cluster_id"] = s.ClusterID
	}
	if s.HasAnomaly {
		out["anomaly_score"] = s.AnomalyScore
	}
	return out
}

// Fmt4 将数值格式化为 4 位小数，非数值原样返回
func Fmt4(v interface{}) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', 4, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', 4, 64)
	case int:
		return strconv.FormatFloat(float64(x), 'f', 4, 64)
	case int64:
		return strconv.FormatFloat(float64(x), 'f', 4, 64)
	case string:
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return strconv.FormatFloat(f, 'f', 4, 64)
		}
		return x
	default:
		return fmt.Sprintf("%v", v)
	}
}
