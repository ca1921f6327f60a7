package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// 离线管线曾经用 pandas merge 产出带后缀的列名，加载时统一回规范名
var columnRenames = map[string]string{
	"cluster_id_y":    "cluster_id",
	"anomaly_score_y": "anomaly_score",
}

// Load 读取风险表 CSV 与摘要 JSON 并构建快照。
// 文件缺失不是错误：缺哪个就给哪个空视图，看板照常渲染空状态。
func Load(csvPath, jsonPath string) (*Snapshot, error) {
	snap := &Snapshot{
		Summaries: make(map[string]*Summary),
		LoadedAt:  time.Now(),
	}

	if csvPath != "" {
		if err := loadCSV(snap, csvPath); err != nil {
			return nil, fmt.Errorf("load wallets csv: %w", err)
		}
	}

	if jsonPath != "" {
		if err := loadSummaries(snap, jsonPath); err != nil {
			return nil, fmt.Errorf("load summaries json: %w", err)
		}
	}

	snap.buildIndex()
	return snap, nil
}

// loadCSV 解析风险表。列名重命名、缺列容忍、畸形行跳过。
func loadCSV(snap *Snapshot, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // 文件不存在 -> 空表
		}
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil // 空文件 -> 空表
		}
		return fmt.Errorf("read header: %w", err)
	}

	// 规范化列名：重命名合并后缀列，丢弃 *_x 列
	cols := make([]string, 0, len(header))
	colIdx := make([]int, 0, len(header)) // 保留列在原始行中的下标
	seen := make(map[string]struct{}, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if renamed, ok := columnRenames[name]; ok {
			if _, dup := seen[renamed]; dup {
				continue // 规范名已存在，后缀列让位
			}
			name = renamed
		}
		if strings.HasSuffix(name, "_x") {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		cols = append(cols, name)
		colIdx = append(colIdx, i)
	}
	snap.Columns = cols

	_, hasWallet := seen["wallet"]

	dedup := make(map[string]struct{})
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			snap.SkippedRows++
			continue
		}

		raw := make(map[string]string, len(cols))
		for i, src := range colIdx {
			if src < len(record) {
				raw[cols[i]] = strings.TrimSpace(record[src])
			}
		}

		if !hasWallet {
			snap.SkippedRows++
			continue
		}

		address := raw["wallet"]
		if address == "" {
			snap.SkippedRows++
			continue
		}

		key := strings.ToLower(address)
		if _, dup := dedup[key]; dup {
			continue // 与原始看板一致：重复地址保留首行
		}
		dedup[key] = struct{}{}

		w := Wallet{Address: address, Raw: raw}
		w.TxCount = parseCount(raw["tx_count"])
		w.EthValueSum = parseFloat(raw["eth_value_sum"])
		w.GasPriceAvg = parseFloat(raw["gas_price_avg"])
		w.TxEntropy = parseFloat(raw["tx_entropy"])
		if v, ok := parseOptionalInt(raw["cluster_id"]); ok {
			w.ClusterID = v
			w.HasCluster = true
		}
		if v, ok := parseOptionalInt(raw["anomaly_score"]); ok {
			w.AnomalyScore = int(v)
			w.HasAnomaly = true
		}

		snap.Wallets = append(snap.Wallets, w)
	}

	return nil
}

// loadSummaries 解析 wallet -> 摘要对象 的 JSON 映射
func loadSummaries(snap *Snapshot, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	byWallet := make(map[string]*Summary)
	if err := json.Unmarshal(data, &byWallet); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	for addr, s := range byWallet {
		if s == nil {
			continue
		}
		snap.Summaries[strings.ToLower(strings.TrimSpace(addr))] = s
	}

	return nil
}

// parseFloat 宽松解析：空串或 NaN 记为 0
func parseFloat(s string) float64 {
	if s == "" || strings.EqualFold(s, "nan") {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// parseCount 宽松解析计数列（兼容 "12.0" 这类浮点写法）
func parseCount(s string) int64 {
	return int64(parseFloat(s))
}

// parseOptionalInt 解析可缺失的整数列，返回值与存在标记
func parseOptionalInt(s string) (int64, bool) {
	if s == "" || strings.EqualFold(s, "nan") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int64(f), true
}
