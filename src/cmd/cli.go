package cmd

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CLIConfig 保存解析好的 CLI 选项以及供各处理器使用的规范化字段。
type CLIConfig struct {
	// 看板服务
	Serve  bool
	Addr   string // 监听地址，默认 :7860
	Source string // file | db

	// 数据集路径（file 来源）
	CSVPath       string
	SummariesPath string

	// 离线摘要生成
	Summarize     bool
	AIProvider    string // 例如 openai | deepseek | local-llm
	Strategy      string // prompt 模板名，默认 forensic
	Limit         int
	OnlyAnomalous bool
	Concurrency   int
	Timeout       time.Duration

	// 钱包活动抓取
	Fetch       bool
	AddressFile string // -file 每行一个地址的 txt 文件
	OutputCSV   string
	ToDB        bool

	// 数据集导入数据库
	Import bool

	// 离线导出
	Export    bool
	ClusterID int64 // -1 表示未指定
	Anomalies bool
	Wallet    string
	Format    string // pdf | md
	OutputDir string

	ConfigPath string // settings.yaml 路径
	Proxy      string // HTTP 代理 (例如 http://127.0.0.1:7897)
	Verbose    bool
}

// Validate 检查 CLIConfig 的必需/一致性输入。
func (c *CLIConfig) Validate() error {
	commands := 0
	for _, on := range []bool{c.Serve, c.Summarize, c.Fetch, c.Import, c.Export} {
		if on {
			commands++
		}
	}
	if commands > 1 {
		return errors.New("only one of -serve, -summarize, -fetch, -import, -export may be used at a time")
	}
	// 未指定命令时默认启动看板
	if commands == 0 {
		c.Serve = true
	}

	if c.Serve {
		if c.Addr == "" {
			c.Addr = ":7860"
		}
		if c.Source == "" {
			c.Source = "file"
		}
		if c.Source != "file" && c.Source != "db" {
			return errors.New("-source must be one of: file, db")
		}
	}

	if c.Summarize {
		if c.AIProvider == "" {
			return errors.New("-ai is required (e.g. -ai openai)")
		}
		if c.Strategy == "" {
			c.Strategy = "forensic"
		}
		if c.Concurrency <= 0 {
			c.Concurrency = 4
		}
	}

	if c.Fetch && c.AddressFile == "" {
		return errors.New("-file is required when -fetch is used")
	}

	if c.Export {
		if c.ClusterID < 0 && !c.Anomalies && c.Wallet == "" {
			return errors.New("-export requires at least one of -cluster, -anomalies, -wallet")
		}
		if c.Format != "" && c.Format != "pdf" && c.Format != "md" {
			return errors.New("-format must be one of: pdf, md")
		}
	}

	return nil
}

// showHelp 显示帮助信息
func showHelp(topic string) {
	switch topic {
	case "serve":
		showServeHelp()
	case "summarize", "ai":
		showSummarizeHelp()
	case "fetch":
		showFetchHelp()
	case "import":
		showImportHelp()
	case "export":
		showExportHelp()
	default:
		showGeneralHelp()
	}
}

// showGeneralHelp 显示通用帮助
func showGeneralHelp() {
	fmt.Println("🔍 ChainIntel - 钱包风险情报看板")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  chainintel [命令] [选项]")
	fmt.Println()
	fmt.Println("主要命令:")
	fmt.Println("  -serve            启动看板 HTTP 服务（默认命令）")
	fmt.Println("  -summarize        为风险表钱包生成 AI 取证摘要")
	fmt.Println("  -fetch            按地址列表抓取链上活动并聚合特征")
	fmt.Println("  -import           将 CSV/JSON 数据集导入数据库")
	fmt.Println("  -export           离线导出簇 CSV / 异常 CSV / 钱包报告")
	fmt.Println()
	fmt.Println("获取特定命令的帮助:")
	fmt.Println("  chainintel -serve --help       # 看板服务帮助")
	fmt.Println("  chainintel -summarize --help   # 摘要生成帮助")
	fmt.Println("  chainintel -fetch --help       # 活动抓取帮助")
	fmt.Println("  chainintel -import --help      # 数据导入帮助")
	fmt.Println("  chainintel -export --help      # 离线导出帮助")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  chainintel -serve -addr :7860")
	fmt.Println("  chainintel -summarize -ai openai -only-anomalous -limit 50")
	fmt.Println("  chainintel -export -cluster 3 -outdir exports/")
}

// showServeHelp 显示看板服务帮助
func showServeHelp() {
	fmt.Println("🚀 看板服务 (-serve)")
	fmt.Println()
	fmt.Println("功能: 启动钱包风险看板的 HTTP 服务")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  chainintel -serve [选项]")
	fmt.Println()
	fmt.Println("选项:")
	fmt.Println("  -addr <addr>        监听地址 (默认 :7860)")
	fmt.Println("  -source <src>       数据来源: file | db (默认 file)")
	fmt.Println("  -csv <path>         风险表 CSV 路径")
	fmt.Println("  -summaries <path>   摘要 JSON 路径")
	fmt.Println("  -v                  记录每个 HTTP 请求")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  chainintel -serve")
	fmt.Println("  chainintel -serve -addr :8080 -csv data/processed/demo_wallets.csv")
	fmt.Println("  chainintel -serve -source db")
}

// showSummarizeHelp 显示摘要生成帮助
func showSummarizeHelp() {
	fmt.Println("🤖 摘要生成 (-summarize)")
	fmt.Println()
	fmt.Println("功能: 为风险表中的钱包生成 AI 取证摘要并写入摘要 JSON")
	fmt.Println()
	fmt.Println("支持的提供商:")
	fmt.Println("  openai       OpenAI GPT-4 Turbo")
	fmt.Println("  gpt4         OpenAI GPT-4")
	fmt.Println("  deepseek     DeepSeek AI")
	fmt.Println("  local-llm    本地LLM (Ollama)")
	fmt.Println("  ollama       本地Ollama")
	fmt.Println()
	fmt.Println("选项:")
	fmt.Println("  -ai <provider>      AI 提供商（必需）")
	fmt.Println("  -s <strategy>       prompt 模板名 (默认 forensic)")
	fmt.Println("  -limit <n>          最多处理 n 个钱包")
	fmt.Println("  -only-anomalous     只处理被标记为异常的钱包")
	fmt.Println("  -concurrency <n>    并发数 (默认 4)")
	fmt.Println("  -timeout <d>        单次 AI 请求超时 (默认 30s)")
	fmt.Println("  -proxy <url>        HTTP 代理")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  chainintel -summarize -ai openai -only-anomalous")
	fmt.Println("  chainintel -summarize -ai deepseek -limit 20 -concurrency 2")
	fmt.Println("  chainintel -summarize -ai local-llm -s forensic")
	fmt.Println()
	fmt.Println("配置:")
	fmt.Println("  在 config/settings.yaml 中设置API密钥")
	fmt.Println("  或使用环境变量: OPENAI_API_KEY, DEEPSEEK_API_KEY")
}

// showFetchHelp 显示活动抓取帮助
func showFetchHelp() {
	fmt.Println("📥 活动抓取 (-fetch)")
	fmt.Println()
	fmt.Println("功能: 按地址列表从 Etherscan/RPC 抓取交易并聚合为特征行")
	fmt.Println()
	fmt.Println("选项:")
	fmt.Println("  -file <path>        地址文件 (每行一个地址，必需)")
	fmt.Println("  -out <path>         抓取结果追加写入的 CSV")
	fmt.Println("  -to-db              同时写入数据库")
	fmt.Println("  -proxy <url>        HTTP 代理")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  chainintel -fetch -file wallets.txt -out data/raw/fetched.csv")
	fmt.Println("  chainintel -fetch -file wallets.txt -to-db -proxy http://127.0.0.1:7897")
}

// showImportHelp 显示数据导入帮助
func showImportHelp() {
	fmt.Println("📊 数据导入 (-import)")
	fmt.Println()
	fmt.Println("功能: 将风险表 CSV 和摘要 JSON 导入数据库（-source db 的数据来源）")
	fmt.Println()
	fmt.Println("选项:")
	fmt.Println("  -csv <path>         风险表 CSV 路径")
	fmt.Println("  -summaries <path>   摘要 JSON 路径")
	fmt.Println()
	fmt.Println("数据库:")
	fmt.Println("  驱动与 DSN 在 config/settings.yaml 配置")
	fmt.Println("  或使用环境变量: CHAININTEL_DB_DRIVER, CHAININTEL_DB_DSN")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  chainintel -import")
	fmt.Println("  chainintel -import -csv data/processed/demo_wallets.csv")
}

// showExportHelp 显示离线导出帮助
func showExportHelp() {
	fmt.Println("📄 离线导出 (-export)")
	fmt.Println()
	fmt.Println("功能: 不启动服务，直接导出簇 CSV、异常钱包 CSV 或单钱包报告")
	fmt.Println()
	fmt.Println("选项:")
	fmt.Println("  -cluster <id>       导出指定簇的钱包 CSV")
	fmt.Println("  -anomalies          导出全部异常钱包 CSV")
	fmt.Println("  -wallet <addr>      导出单钱包报告（支持短地址）")
	fmt.Println("  -format <fmt>       钱包报告格式: pdf | md (默认 pdf)")
	fmt.Println("  -outdir <dir>       输出目录 (默认当前目录)")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  chainintel -export -cluster 3 -outdir exports/")
	fmt.Println("  chainintel -export -anomalies")
	fmt.Println("  chainintel -export -wallet 0x123456... -format md")
}

// ParseFlags 解析 os.Args 并返回 CLIConfig 或错误。用于从 main 调用。
func ParseFlags() (*CLIConfig, error) {
	// 检查是否请求帮助
	if len(os.Args) > 1 {
		// 处理特定命令的帮助请求 (如 -serve --help, -summarize --help)
		for i := 1; i < len(os.Args)-1; i++ {
			if os.Args[i+1] == "--help" || os.Args[i+1] == "-h" {
				cmd := os.Args[i]
				if strings.HasPrefix(cmd, "--") {
					cmd = cmd[2:]
				} else if strings.HasPrefix(cmd, "-") {
					cmd = cmd[1:]
				}
				showHelp(cmd)
				os.Exit(0)
			}
		}

		// 处理通用帮助请求
		for _, arg := range os.Args[1:] {
			if arg == "--help" || arg == "-h" {
				showGeneralHelp()
				os.Exit(0)
			}
		}
	}

	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.Usage = func() {
		showGeneralHelp()
	}

	serve := fs.Bool("serve", false, "启动看板 HTTP 服务（未指定命令时的默认行为）")
	addr := fs.String("addr", ":7860", "看板监听地址")
	source := fs.String("source", "file", "数据来源: file | db")
	csvPath := fs.String("csv", "", "风险表 CSV 路径（默认取 settings.yaml）")
	summariesPath := fs.String("summaries", "", "摘要 JSON 路径（默认取 settings.yaml）")

	summarize := fs.Bool("summarize", false, "为风险表钱包生成 AI 取证摘要")
	ai := fs.String("ai", "", "AI provider to use (e.g. openai)")
	strategy := fs.String("s", "forensic", "Strategy/prompt name in strategy/prompts/summary/")
	limit := fs.Int("limit", 0, "最多处理的钱包数 (<=0 不限制)")
	onlyAnomalous := fs.Bool("only-anomalous", false, "只为异常钱包生成摘要")
	concurrency := fs.Int("concurrency", 4, "Worker concurrency")
	timeout := fs.Duration("timeout", 30*time.Second, "Per-AI request timeout")

	fetch := fs.Bool("fetch", false, "按地址列表抓取链上活动")
	fileFlag := fs.String("file", "", "地址文件路径（每行一个地址），与 -fetch 一起使用")
	outCSV := fs.String("out", "", "抓取结果追加写入的 CSV 路径")
	toDB := fs.Bool("to-db", false, "抓取结果写入数据库")

	importFlag := fs.Bool("import", false, "将 CSV/JSON 数据集导入数据库")

	exportFlag := fs.Bool("export", false, "离线导出簇 CSV / 异常 CSV / 钱包报告")
	cluster := fs.Int64("cluster", -1, "导出指定簇的钱包 CSV")
	anomalies := fs.Bool("anomalies", false, "导出全部异常钱包 CSV")
	wallet := fs.String("wallet", "", "导出单钱包报告（支持短地址）")
	format := fs.String("format", "", "钱包报告格式: pdf | md (默认 pdf)")
	outDir := fs.String("outdir", "", "导出输出目录 (默认当前目录)")

	configPath := fs.String("config", "", "settings.yaml 路径 (默认 config/settings.yaml)")
	proxy := fs.String("proxy", "", "可选 HTTP 代理，例如 http://127.0.0.1:7897")
	verbose := fs.Bool("v", false, "Verbose output")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, err
	}

	cfg := &CLIConfig{
		Serve:         *serve,
		Addr:          strings.TrimSpace(*addr),
		Source:        strings.ToLower(strings.TrimSpace(*source)),
		CSVPath:       strings.TrimSpace(*csvPath),
		SummariesPath: strings.TrimSpace(*summariesPath),
		Summarize:     *summarize,
		AIProvider:    strings.TrimSpace(*ai),
		Strategy:      strings.TrimSpace(*strategy),
		Limit:         *limit,
		OnlyAnomalous: *onlyAnomalous,
		Concurrency:   *concurrency,
		Timeout:       *timeout,
		Fetch:         *fetch,
		AddressFile:   strings.TrimSpace(*fileFlag),
		OutputCSV:     strings.TrimSpace(*outCSV),
		ToDB:          *toDB,
		Import:        *importFlag,
		Export:        *exportFlag,
		ClusterID:     *cluster,
		Anomalies:     *anomalies,
		Wallet:        strings.TrimSpace(*wallet),
		Format:        strings.ToLower(strings.TrimSpace(*format)),
		OutputDir:     strings.TrimSpace(*outDir),
		ConfigPath:    strings.TrimSpace(*configPath),
		Proxy:         strings.TrimSpace(*proxy),
		Verbose:       *verbose,
	}

	// 如果提供了地址文件但不是绝对路径，则将其转为相对于当前工作目录
	if cfg.AddressFile != "" {
		if !filepath.IsAbs(cfg.AddressFile) {
			cwd, _ := os.Getwd()
			cfg.AddressFile = filepath.Join(cwd, cfg.AddressFile)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Run 是一个便利包装，解析 flags 并分派到相应处理器。
func Run() error {
	cfg, err := ParseFlags()
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	return Execute(cfg)
}

// PrintFatal 将错误打印到 stderr 并以非零代码退出。
func PrintFatal(err error) {
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, "错误:", err)
	os.Exit(1)
}
