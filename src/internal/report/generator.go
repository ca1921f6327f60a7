package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/admi-n/chainintel/src/internal/dataset"
)

// WalletFinding 报告中的单个钱包条目（字段均已格式化）
type WalletFinding struct {
	Address      string
	ClusterID    string
	RiskLevel    string // High / Low
	AnomalyScore string
	EthSent      string
	TxCount      string
	Tag          string
	Summary      string
}

// Report 一份完整的钱包情报报告
type Report struct {
	Title       string
	Scope       string // 例如 cluster_3 / anomalies / 0x1234...
	Source      string // file | db
	GeneratedAt time.Time
	KPIs        dataset.KPIs
	Insights    []string // 预渲染的洞察 markdown 块
	Findings    []WalletFinding
}

// Generator 报告生成器接口
type Generator interface {
	Generate(report *Report) (string, error)
}

// MarkdownGenerator markdown格式报告生成器
type MarkdownGenerator struct{}

// NewMarkdownGenerator 创建markdown报告生成器
func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{}
}

// Generate 生成markdown格式报告
func (g *MarkdownGenerator) Generate(report *Report) (string, error) {
	if report == nil {
		return "", fmt.Errorf("report is nil")
	}

	var b strings.Builder

	title := report.Title
	if title == "" {
		title = "ChainIntel Wallet Risk Report"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "**Scope**: %s\n", report.Scope)
	fmt.Fprintf(&b, "**Source**: %s\n", report.Source)
	fmt.Fprintf(&b, "**Generated**: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))

	// 汇总统计
	b.WriteString("## Overview\n\n")
	fmt.Fprintf(&b, "- **Total Wallets**: %d\n", report.KPIs.TotalWallets)
	fmt.Fprintf(&b, "- **Anomalous**: %d\n", report.KPIs.Anomalies)
	fmt.Fprintf(&b, "- **Clusters**: %d\n", report.KPIs.Clusters)
	fmt.Fprintf(&b, "- **Anomaly Rate**: %.1f%%\n\n", report.KPIs.AnomalyRate)

	// 洞察块
	if len(report.Insights) > 0 {
		b.WriteString("## Insights\n\n")
		for _, insight := range report.Insights {
			b.WriteString(insight)
			b.WriteString("\n\n")
		}
	}

	// 钱包明细
	b.WriteString("## Wallets\n\n")
	for i, f := range report.Findings {
		b.WriteString(RenderWalletCard(&f))
		if i < len(report.Findings)-1 {
			b.WriteString("\n---\n\n")
		}
	}

	return b.String(), nil
}

// NewReport 创建新的报告实例
func NewReport(scope, source string) *Report {
	return &Report{
		Scope:       scope,
		Source:      source,
		GeneratedAt: time.Now(),
		Insights:    make([]string, 0),
		Findings:    make([]WalletFinding, 0),
	}
}

// AddFinding 添加钱包条目
func (r *Report) AddFinding(f WalletFinding) {
	r.Findings = append(r.Findings, f)
}

// FindingFromWallet 由数据集行构建报告条目
func FindingFromWallet(w *dataset.Wallet, summary *dataset.Summary) WalletFinding {
	f := WalletFinding{
		Address:   w.Address,
		RiskLevel: w.RiskLevel(),
		EthSent:   dataset.Fmt4(w.EthValueSum),
		TxCount:   fmt.Sprintf("%d", w.TxCount),
	}
	if w.HasCluster {
		f.ClusterID = fmt.Sprintf("%d", w.ClusterID)
	} else {
		f.ClusterID = "N/A"
	}
	if w.HasAnomaly {
		f.AnomalyScore = dataset.Fmt4(w.AnomalyScore)
	} else {
		f.AnomalyScore = "N/A"
	}
	if summary != nil {
		f.Summary = summary.Summary
		f.Tag = dataset.GenerateTag(summary.Summary)
	} else {
		f.Tag = "No Tag"
	}
	return f
}
