package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/admi-n/chainintel/src/internal/dataset"
)

// WriteWalletsCSV 按快照的列顺序输出钱包行。columns 为空时使用规范列集。
func WriteWalletsCSV(out io.Writer, columns []string, rows []dataset.Wallet) error {
	if len(columns) == 0 {
		columns = dataset.CanonicalColumns
	}

	w := csv.NewWriter(out)
	if err := w.Write(columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(columns))
	for i := range rows {
		for j, col := range columns {
			record[j] = rows[i].Raw[col]
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

// ClusterCSVName 簇导出文件名，与原始看板命名一致
func ClusterCSVName(clusterID int64) string {
	return fmt.Sprintf("cluster_%d_wallets.csv", clusterID)
}

// AnomaliesCSVName 异常钱包导出文件名
const AnomaliesCSVName = "high_risk_wallets.csv"
