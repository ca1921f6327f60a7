package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// WalletReportData PDF 报告用的展示字段（已格式化为字符串）
type WalletReportData struct {
	Address      string
	ClusterID    string
	RiskLevel    string // High / Low
	AnomalyScore string
	EthSent      string
	TxCount      string
	Tag          string
	Summary      string
}

// WalletPDF 生成单钱包取证报告 PDF
func WalletPDF(out io.Writer, d WalletReportData) error {
	if d.Address == "" {
		return fmt.Errorf("WalletPDF: address is empty")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 10, "ChainIntel Forensic Wallet Report", "", 1, "C", false, 0, "")
		pdf.Ln(2)
	})
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 8, "Wallet: "+d.Address, "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	meta := [][2]string{
		{"Risk Level", d.RiskLevel},
		{"Cluster ID", d.ClusterID},
		{"Anomaly Score", d.AnomalyScore},
		{"ETH Sent", d.EthSent},
		{"TX Count", d.TxCount},
		{"Tag", d.Tag},
	}
	for _, kv := range meta {
		if kv[1] == "" {
			kv[1] = "N/A"
		}
		pdf.CellFormat(0, 7, fmt.Sprintf("%s: %s", kv[0], kv[1]), "", 1, "L", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 7, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	summary := d.Summary
	if summary == "" {
		summary = "No GPT summary available."
	}
	pdf.MultiCell(0, 6, summary, "", "L", false)

	if err := pdf.Output(out); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// WalletPDFName 单钱包报告文件名
func WalletPDFName(address string) string {
	return fmt.Sprintf("%s_report.pdf", address)
}
