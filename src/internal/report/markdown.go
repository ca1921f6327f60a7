package report

import (
	"fmt"
	"strings"
)

// riskIcon 风险等级图标
func riskIcon(level string) string {
	switch level {
	case "High":
		return "🔴"
	case "Low":
		return "🟢"
	default:
		return "⚪"
	}
}

// RenderWalletCard 渲染单钱包的 markdown 卡片（看板与报告共用）
func RenderWalletCard(f *WalletFinding) string {
	var b strings.Builder

	fmt.Fprintf(&b, "### Wallet Report\n\n")
	fmt.Fprintf(&b, "**Wallet Address:** [%s](https://etherscan.io/address/%s)  \n", f.Address, f.Address)
	fmt.Fprintf(&b, "**Risk Level:** %s %s  \n", riskIcon(f.RiskLevel), f.RiskLevel)
	fmt.Fprintf(&b, "**Cluster ID:** `%s`  \n", orNA(f.ClusterID))
	fmt.Fprintf(&b, "**Anomaly Score:** `%s`  \n", orNA(f.AnomalyScore))
	fmt.Fprintf(&b, "**ETH Sent:** `%s`  \n", orNA(f.EthSent))
	fmt.Fprintf(&b, "**TX Count:** `%s`\n", orNA(f.TxCount))

	if f.Summary != "" || f.Tag != "" {
		fmt.Fprintf(&b, "\n**Tag:** %s\n", orNA(f.Tag))
		summary := f.Summary
		if summary == "" {
			summary = "No GPT summary available."
		}
		fmt.Fprintf(&b, "\n**Insight:**  \n%s\n", summary)
	}

	return b.String()
}

// RenderSummaryCard 渲染 GPT 摘要卡片
func RenderSummaryCard(f *WalletFinding) string {
	var b strings.Builder

	fmt.Fprintf(&b, "### GPT Forensic Summary\n\n")
	fmt.Fprintf(&b, "**Wallet:** `%s`  \n", orNA(f.Address))
	fmt.Fprintf(&b, "**Cluster ID:** `%s`  \n", orNA(f.ClusterID))
	fmt.Fprintf(&b, "**Anomaly Score:** `%s`  \n", orNA(f.AnomalyScore))
	fmt.Fprintf(&b, "**Risk Level:** %s %s  \n", riskIcon(f.RiskLevel), f.RiskLevel)
	fmt.Fprintf(&b, "**Tag:** %s\n", orNA(f.Tag))

	summary := f.Summary
	if summary == "" {
		summary = "No GPT summary available."
	}
	fmt.Fprintf(&b, "\n**Insight:**  \n%s\n", summary)

	return b.String()
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
