package handler

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/admi-n/chainintel/src/config"
	"github.com/admi-n/chainintel/src/internal"
	"github.com/admi-n/chainintel/src/internal/dataset"
	"github.com/admi-n/chainintel/src/internal/export"
	"github.com/admi-n/chainintel/src/internal/report"
)

// RunExport 执行离线导出：簇 CSV、异常钱包 CSV、单钱包报告
func RunExport(cfg internal.ExportConfig) error {
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

	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	exported := 0

	if cfg.ClusterID >= 0 {
		path, err := exportClusterCSV(snap, cfg.ClusterID, outputDir)
		if err != nil {
			return err
		}
		fmt.Printf("📄 簇导出完成: %s\n", path)
		exported++
	}

	if cfg.Anomalies {
		path, err := exportAnomaliesCSV(snap, outputDir)
		if err != nil {
			return err
		}
		fmt.Printf("📄 异常钱包导出完成: %s\n", path)
		exported++
	}

	if cfg.Wallet != "" {
		path, err := exportWalletReport(snap, cfg.Wallet, outputDir, cfg.Format)
		if err != nil {
			return err
		}
		fmt.Printf("📄 钱包报告导出完成: %s\n", path)
		exported++
	}

	if exported == 0 {
		fmt.Println("⚠️  未指定导出目标（-cluster / -anomalies / -wallet）")
	}
	return nil
}

// exportClusterCSV 导出指定簇的全部钱包行
func exportClusterCSV(snap *dataset.Snapshot, clusterID int64, outputDir string) (string, error) {
	rows := snap.ClusterWallets(clusterID)
	if len(rows) == 0 {
		return "", fmt.Errorf("簇 %d 中没有钱包", clusterID)
	}

	path := filepath.Join(outputDir, export.ClusterCSVName(clusterID))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("创建导出文件失败: %w", err)
	}
	defer f.Close()

	if err := export.WriteWalletsCSV(f, snap.Columns, rows); err != nil {
		return "", fmt.Errorf("写入簇 CSV 失败: %w", err)
	}
	return path, nil
}

// exportAnomaliesCSV 导出全部异常钱包行
func exportAnomaliesCSV(snap *dataset.Snapshot, outputDir string) (string, error) {
	rows := snap.Anomalies()
	if len(rows) == 0 {
		return "", fmt.Errorf("数据集中没有异常钱包")
	}

	path := filepath.Join(outputDir, export.AnomaliesCSVName)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("创建导出文件失败: %w", err)
	}
	defer f.Close()

	if err := export.WriteWalletsCSV(f, snap.Columns, rows); err != nil {
		return "", fmt.Errorf("写入异常钱包 CSV 失败: %w", err)
	}
	return path, nil
}

// exportWalletReport 导出单钱包报告（pdf 或 md）
func exportWalletReport(snap *dataset.Snapshot, wallet, outputDir, format string) (string, error) {
	resolved, ok := snap.Resolve(wallet)
	if !ok {
		return "", fmt.Errorf("无法解析钱包地址: %s", wallet)
	}

	w, found := snap.Lookup(resolved)
	if !found {
		return "", fmt.Errorf("钱包不在数据集中: %s", resolved)
	}
	sum, _ := snap.SummaryFor(resolved)

	finding := report.FindingFromWallet(w, sum)

	switch format {
	case "", "pdf":
		path := filepath.Join(outputDir, export.WalletPDFName(w.Address))
		f, err := os.Create(path)
		if err != nil {
			return "", fmt.Errorf("创建 PDF 文件失败: %w", err)
		}
		defer f.Close()

		if err := export.WalletPDF(f, export.WalletReportData(finding)); err != nil {
			return "", fmt.Errorf("生成 PDF 失败: %w", err)
		}
		return path, nil

	case "md", "markdown":
		rep := report.NewReport(w.Address, "file")
		rep.KPIs = snap.KPIs()
		rep.AddFinding(finding)

		reporter := report.NewReporter(report.NewMarkdownGenerator(), report.NewFileStorage(outputDir))
		path, err := reporter.GenerateAndSave(rep)
		if err != nil {
			return "", fmt.Errorf("生成 markdown 报告失败: %w", err)
		}
		return path, nil

	default:
		return "", fmt.Errorf("不支持的报告格式: %s (支持: pdf, md)", format)
	}
}
