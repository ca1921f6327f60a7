package cmd

import (
	"fmt"

	"github.com/admi-n/chainintel/src/config"
	"github.com/admi-n/chainintel/src/internal"
	"github.com/admi-n/chainintel/src/internal/handler"
)

// loadSettings 加载配置文件，失败时回退到环境变量
func loadSettings(path string) {
	if err := config.LoadSettings(path); err != nil {
		fmt.Printf("⚠️  警告: 无法加载配置文件: %v\n", err)
		fmt.Println("将尝试从环境变量读取配置...")
	}
}

// ExecuteServe 启动看板服务
func ExecuteServe(cfg *CLIConfig) error {
	return handler.RunServe(internal.ServeConfig{
		Addr:          cfg.Addr,
		Source:        cfg.Source,
		CSVPath:       cfg.CSVPath,
		SummariesPath: cfg.SummariesPath,
		Verbose:       cfg.Verbose,
	})
}

// ExecuteSummarize 执行摘要生成命令
func ExecuteSummarize(cfg *CLIConfig) error {
	return handler.RunSummarize(internal.SummarizeConfig{
		AIProvider:    cfg.AIProvider,
		Strategy:      cfg.Strategy,
		CSVPath:       cfg.CSVPath,
		SummariesPath: cfg.SummariesPath,
		Limit:         cfg.Limit,
		OnlyAnomalous: cfg.OnlyAnomalous,
		Concurrency:   cfg.Concurrency,
		Timeout:       cfg.Timeout,
		Proxy:         cfg.Proxy,
	})
}

// ExecuteFetch 执行活动抓取命令
func ExecuteFetch(cfg *CLIConfig) error {
	return handler.RunFetch(internal.FetchConfig{
		AddressFile: cfg.AddressFile,
		OutputCSV:   cfg.OutputCSV,
		ToDB:        cfg.ToDB,
		Proxy:       cfg.Proxy,
	})
}

// ExecuteImport 执行数据导入命令
func ExecuteImport(cfg *CLIConfig) error {
	return handler.RunImport(internal.ImportConfig{
		CSVPath:       cfg.CSVPath,
		SummariesPath: cfg.SummariesPath,
	})
}

// ExecuteExport 执行离线导出命令
func ExecuteExport(cfg *CLIConfig) error {
	return handler.RunExport(internal.ExportConfig{
		CSVPath:       cfg.CSVPath,
		SummariesPath: cfg.SummariesPath,
		OutputDir:     cfg.OutputDir,
		ClusterID:     cfg.ClusterID,
		Anomalies:     cfg.Anomalies,
		Wallet:        cfg.Wallet,
		Format:        cfg.Format,
	})
}

// Execute 执行主命令逻辑
func Execute(cfg *CLIConfig) error {
	loadSettings(cfg.ConfigPath)

	if cfg.Verbose {
		fmt.Printf("使用配置运行 ChainIntel: %+v\n", cfg)
	}

	switch {
	case cfg.Summarize:
		return ExecuteSummarize(cfg)
	case cfg.Fetch:
		return ExecuteFetch(cfg)
	case cfg.Import:
		return ExecuteImport(cfg)
	case cfg.Export:
		return ExecuteExport(cfg)
	default:
		return ExecuteServe(cfg)
	}
}
