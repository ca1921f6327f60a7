package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/admi-n/chainintel/src/config"
	"github.com/admi-n/chainintel/src/internal"
	"github.com/admi-n/chainintel/src/internal/ai"
	"github.com/admi-n/chainintel/src/internal/ai/parser"
	"github.com/admi-n/chainintel/src/internal/dataset"
	"github.com/admi-n/chainintel/src/strategy/prompts"
)

// RunSummarize 执行离线钱包摘要生成
func RunSummarize(cfg internal.SummarizeConfig) error {
	fmt.Println("🎯 启动钱包取证摘要生成...")

	csvPath := cfg.CSVPath
	if csvPath == "" {
		csvPath = config.GetWalletsCSVPath()
	}
	summariesPath := cfg.SummariesPath
	if summariesPath == "" {
		summariesPath = config.GetSummariesJSONPath()
	}

	// 1. 加载风险表和已有摘要（断点续跑）
	snap, err := dataset.Load(csvPath, summariesPath)
	if err != nil {
		return fmt.Errorf("加载数据集失败: %w", err)
	}
	if len(snap.Wallets) == 0 {
		fmt.Println("⚠️  风险表为空，没有可处理的钱包")
		return nil
	}

	// 2. 创建 AI 管理器
	if err := ai.ValidateProvider(cfg.AIProvider); err != nil {
		return err
	}
	aiManager, err := ai.NewManager(ai.ManagerConfig{
		Provider:       cfg.AIProvider,
		Timeout:        cfg.Timeout,
		Proxy:          cfg.Proxy,
		RequestsPerMin: 20, // 每分钟 20 个请求
	})
	if err != nil {
		return fmt.Errorf("创建 AI 管理器失败: %w", err)
	}
	defer aiManager.Close()

	fmt.Printf("🤖 AI 客户端: %s\n", aiManager.GetClientInfo())

	// 3. 测试 AI 连接
	ctx := context.Background()
	if err := aiManager.TestConnection(ctx); err != nil {
		return fmt.Errorf("AI 连接测试失败: %w", err)
	}

	// 4. 选择目标钱包：跳过已有摘要的，按需只取异常钱包
	strategy := cfg.Strategy
	if strategy == "" {
		strategy = "forensic"
	}
	if available, err := prompts.ListStrategies("summary"); err == nil {
		known := false
		for _, s := range available {
			if s == strategy {
				known = true
				break
			}
		}
		if !known {
			fmt.Printf("⚠️  未找到策略模板 %s，将使用内置默认模板 (可用: %s)\n", strategy, strings.Join(available, ", "))
		}
	}

	targets := make([]dataset.Wallet, 0, len(snap.Wallets))
	skippedExisting := 0
	for _, w := range snap.Wallets {
		if _, ok := snap.SummaryFor(w.Address); ok {
			skippedExisting++
			continue
		}
		if cfg.OnlyAnomalous && !w.IsHighRisk() {
			continue
		}
		targets = append(targets, w)
		if cfg.Limit > 0 && len(targets) >= cfg.Limit {
			break
		}
	}

	if len(targets) == 0 {
		fmt.Println("✅ 所有目标钱包均已有摘要，无需生成")
		return nil
	}

	fmt.Printf("📋 共找到 %d 个目标钱包 (已有摘要: %d)\n", len(targets), skippedExisting)

	// 5. 构建 prompt 批次
	inputs := make([]ai.WalletInput, 0, len(targets))
	for _, w := range targets {
		inputs = append(inputs, ai.WalletInput{
			Address: w.Address,
			Prompt:  prompts.BuildSummaryPrompt(w.Address, w.Raw, strategy),
		})
	}

	// 6. 并发生成摘要
	results, batchErr := aiManager.SummarizeBatch(ctx, inputs, cfg.Concurrency)
	if batchErr != nil {
		fmt.Printf("⚠️  部分摘要生成失败: %v\n", batchErr)
	}

	// 7. 合并结果并写回摘要 JSON
	successCount := 0
	for i, r := range results {
		if r == nil || strings.TrimSpace(r.Summary) == "" {
			continue
		}
		w := targets[i]
		sum := summaryFromResult(&w, r)
		snap.Summaries[strings.ToLower(w.Address)] = sum
		successCount++
	}

	if successCount > 0 {
		if err := writeSummariesJSON(summariesPath, snap.Summaries); err != nil {
			return fmt.Errorf("写入摘要文件失败: %w", err)
		}
	}

	// 8. 打印总结
	fmt.Printf("\n%s\n", strings.Repeat("=", 50))
	fmt.Printf("✅ 摘要生成完成！\n")
	fmt.Printf("   - 目标钱包数: %d\n", len(targets))
	fmt.Printf("   - 成功生成: %d\n", successCount)
	fmt.Printf("   - 失败/跳过: %d\n", len(targets)-successCount)
	fmt.Printf("   - 输出文件: %s\n", summariesPath)
	fmt.Printf("%s\n\n", strings.Repeat("=", 50))

	return nil
}

// summaryFromResult 将 AI 结果转换为数据集摘要条目，带上风险表里的簇和异常标记
func summaryFromResult(w *dataset.Wallet, r *parser.SummaryResult) *dataset.Summary {
	sum := &dataset.Summary{
		Summary:      r.Summary,
		ClusterID:    w.ClusterID,
		HasCluster:   w.HasCluster,
		AnomalyScore: w.AnomalyScore,
		HasAnomaly:   w.HasAnomaly,
		Extra:        make(map[string]json.RawMessage),
	}

	if r.Tag != "" {
		if bs, err := json.Marshal(r.Tag); err == nil {
			sum.Extra["tag"] = bs
		}
	}
	if len(r.RiskFactors) > 0 {
		if bs, err := json.Marshal(r.RiskFactors); err == nil {
			sum.Extra["risk_factors"] = bs
		}
	}
	if r.RiskScore > 0 {
		if bs, err := json.Marshal(r.RiskScore); err == nil {
			sum.Extra["risk_score"] = bs
		}
	}

	return sum
}

// writeSummariesJSON 将摘要表写回 JSON 文件（地址 -> 摘要对象）
func writeSummariesJSON(path string, summaries map[string]*dataset.Summary) error {
	out := make(map[string]json.RawMessage, len(summaries))
	for addr, s := range summaries {
		payload, err := s.MarshalPayload()
		if err != nil {
			return fmt.Errorf("序列化摘要失败 %s: %w", addr, err)
		}
		obj := make(map[string]json.RawMessage)
		if err := json.Unmarshal(payload, &obj); err != nil {
			return fmt.Errorf("合并摘要字段失败 %s: %w", addr, err)
		}
		if bs, err := json.Marshal(s.Summary); err == nil {
			obj["summary"] = bs
		}
		merged, err := json.Marshal(obj)
		if err != nil {
			return fmt.Errorf("序列化摘要失败 %s: %w", addr, err)
		}
		out[addr] = merged
	}

	bs, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化摘要表失败: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, bs, 0o644); err != nil {
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("替换摘要文件失败: %w", err)
	}
	return nil
}

