package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/admi-n/chainintel/src/config"
	"github.com/admi-n/chainintel/src/internal"
	"github.com/admi-n/chainintel/src/internal/dataset"
)

// RunImport 将文件数据集导入数据库（wallets + wallet_summaries 两张表）
func RunImport(cfg internal.ImportConfig) error {
	fmt.Println("🎯 启动数据集导入...")

	csvPath := cfg.CSVPath
	if csvPath == "" {
		csvPath = config.GetWalletsCSVPath()
	}
	summariesPath := cfg.SummariesPath
	if summariesPath == "" {
		summariesPath = config.GetSummariesJSONPath()
	}

	snap, err := dataset.Load(csvPath, summariesPath)
	if err != nil {
		return fmt.Errorf("加载数据集失败: %w", err)
	}
	if len(snap.Wallets) == 0 && len(snap.Summaries) == 0 {
		fmt.Println("⚠️  数据集为空，无可导入内容")
		return nil
	}

	db, err := config.InitDB()
	if err != nil {
		return fmt.Errorf("初始化数据库失败: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	walletCount := 0
	for i := range snap.Wallets {
		if err := config.SaveWallet(ctx, db, &snap.Wallets[i]); err != nil {
			fmt.Printf("❌ 保存钱包失败: %s -> %v\n", snap.Wallets[i].Address, err)
			continue
		}
		walletCount++
		if walletCount%500 == 0 {
			fmt.Printf("📦 已导入 %d 行...\n", walletCount)
		}
	}

	summaryCount := 0
	for addr, sum := range snap.Summaries {
		if err := config.SaveSummary(ctx, db, addr, sum); err != nil {
			fmt.Printf("❌ 保存摘要失败: %s -> %v\n", addr, err)
			continue
		}
		summaryCount++
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 50))
	fmt.Printf("✅ 导入完成！\n")
	fmt.Printf("   - 钱包行: %d / %d\n", walletCount, len(snap.Wallets))
	fmt.Printf("   - 摘要条目: %d / %d\n", summaryCount, len(snap.Summaries))
	if snap.SkippedRows > 0 {
		fmt.Printf("   - 跳过畸形行: %d\n", snap.SkippedRows)
	}
	fmt.Printf("%s\n\n", strings.Repeat("=", 50))

	return nil
}
