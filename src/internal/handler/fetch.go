package handler

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/admi-n/chainintel/src/config"
	"github.com/admi-n/chainintel/src/internal"
	"github.com/admi-n/chainintel/src/internal/dataset"
	"github.com/admi-n/chainintel/src/internal/download"
	"github.com/admi-n/chainintel/src/internal/export"
)

// fetchFailFile 抓取失败地址的记录文件
const fetchFailFile = "fetch_failed.txt"

// RunFetch 按地址列表抓取钱包活动并聚合为特征行
func RunFetch(cfg internal.FetchConfig) error {
	fmt.Println("🎯 启动钱包活动抓取...")

	addresses, err := readAddressFile(cfg.AddressFile)
	if err != nil {
		return fmt.Errorf("读取地址文件失败: %w", err)
	}
	if len(addresses) == 0 {
		fmt.Println("⚠️  地址文件为空")
		return nil
	}

	fmt.Printf("📋 共找到 %d 个目标地址\n", len(addresses))

	ctx := context.Background()

	// 按需初始化数据库
	var db *sql.DB
	if cfg.ToDB {
		db, err = config.InitDB()
		if err != nil {
			return fmt.Errorf("初始化数据库失败: %w", err)
		}
		defer db.Close()
	}

	downloader, err := download.NewDownloader(db, cfg.Proxy)
	if err != nil {
		return fmt.Errorf("创建下载器失败: %w", err)
	}
	defer downloader.Close()

	if block, err := downloader.GetCurrentBlock(ctx); err == nil {
		fmt.Printf("📦 当前区块高度: %d\n", block)
	}

	rows, err := downloader.FetchAddresses(ctx, addresses, fetchFailFile)
	if err != nil {
		return fmt.Errorf("抓取钱包活动失败: %w", err)
	}

	if cfg.OutputCSV != "" && len(rows) > 0 {
		if err := appendWalletsCSV(cfg.OutputCSV, rows); err != nil {
			return fmt.Errorf("写入抓取结果 CSV 失败: %w", err)
		}
		fmt.Printf("📄 抓取结果已写入: %s\n", cfg.OutputCSV)
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 50))
	fmt.Printf("✅ 抓取完成！\n")
	fmt.Printf("   - 目标地址数: %d\n", len(addresses))
	fmt.Printf("   - 成功抓取: %d\n", len(rows))
	fmt.Printf("   - 失败/跳过: %d\n", len(addresses)-len(rows))
	fmt.Printf("%s\n\n", strings.Repeat("=", 50))

	return nil
}

// appendWalletsCSV 将特征行追加写入 CSV（文件不存在时写表头）
func appendWalletsCSV(path string, rows []dataset.Wallet) error {
	_, statErr := os.Stat(path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if writeHeader {
		return export.WriteWalletsCSV(f, dataset.CanonicalColumns, rows)
	}

	// 追加模式下只写数据行
	w := csv.NewWriter(f)
	for i := range rows {
		record := make([]string, 0, len(dataset.CanonicalColumns))
		for _, col := range dataset.CanonicalColumns {
			record = append(record, rows[i].Raw[col])
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// readAddressFile 从文件获取地址列表（每行一个，支持 # 和 // 注释）
func readAddressFile(filepathStr string) ([]string, error) {
	if strings.TrimSpace(filepathStr) == "" {
		return nil, fmt.Errorf("文件路径为空")
	}
	bs, err := os.ReadFile(filepathStr)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(bs), "\n")
	addrs := make([]string, 0, len(lines))
	for _, l := range lines {
		line := strings.TrimSpace(l)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		// 支持以逗号或空格分隔的多字段，取第一个字段
		fields := strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
		if len(fields) == 0 {
			continue
		}
		addrs = append(addrs, strings.TrimSpace(fields[0]))
	}
	return addrs, nil
}
