package internal

import "time"

// ServeConfig 看板服务配置
type ServeConfig struct {
	Addr          string // 监听地址，例如 :7860
	Source        string // "file" 或 "db"
	CSVPath       string // 风险表 CSV 路径（file 来源）
	SummariesPath string // 摘要 JSON 路径（file 来源）
	Verbose       bool
}

// SummarizeConfig 离线摘要生成配置
type SummarizeConfig struct {
	AIProvider    string // 例如 openai | deepseek | local-llm
	Strategy      string // prompt 模板名，默认 forensic
	CSVPath       string
	SummariesPath string // 输出（以及断点续跑的输入）
	Limit         int    // <=0 表示不限制
	OnlyAnomalous bool   // 只为异常钱包生成摘要
	Concurrency   int
	Timeout       time.Duration
	Proxy         string // 可选 HTTP 代理
}

// FetchConfig 钱包活动抓取配置
type FetchConfig struct {
	AddressFile string // 每行一个地址的 txt 文件
	OutputCSV   string // 抓取结果追加写入的 CSV，空则只写数据库
	ToDB        bool   // 是否写入数据库
	Proxy       string
}

// ImportConfig 文件数据集导入数据库配置
type ImportConfig struct {
	CSVPath       string
	SummariesPath string
}

// ExportConfig 导出命令配置
type ExportConfig struct {
	CSVPath       string
	SummariesPath string
	OutputDir     string
	ClusterID     int64 // -1 表示不按簇导出
	Anomalies     bool  // 导出异常钱包 CSV
	Wallet        string // 单钱包报告地址
	Format        string // pdf | md
}
