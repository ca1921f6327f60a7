package export

import (
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/admi-n/chainintel/src/internal/dataset"
)

// ClusterBarChart 渲染各簇钱包数的柱状图 PNG
func ClusterBarChart(out io.Writer, counts []dataset.ClusterCount) error {
	if len(counts) == 0 {
		return fmt.Errorf("no cluster data to chart")
	}

	bars := make([]chart.Value, 0, len(counts))
	for _, c := range counts {
		bars = append(bars, chart.Value{
			Value: float64(c.Wallets),
			Label: fmt.Sprintf("%d", c.ClusterID),
		})
	}

	graph := chart.BarChart{
		Title:    "Wallets per Cluster",
		Width:    800,
		Height:   420,
		BarWidth: 48,
		Bars:     bars,
	}

	if err := graph.Render(chart.PNG, out); err != nil {
		return fmt.Errorf("render cluster chart: %w", err)
	}
	return nil
}

// AnomalyPieChart 渲染异常/正常占比饼图 PNG
func AnomalyPieChart(out io.Writer, k dataset.KPIs) error {
	if k.TotalWallets == 0 {
		return fmt.Errorf("no wallet data to chart")
	}

	normal := k.TotalWallets - k.Anomalies
	values := []chart.Value{
		{Value: float64(k.Anomalies), Label: fmt.Sprintf("Anomalous (%d)", k.Anomalies)},
		{Value: float64(normal), Label: fmt.Sprintf("Normal (%d)", normal)},
	}

	graph := chart.PieChart{
		Title:  "Anomaly Rate",
		Width:  512,
		Height: 512,
		Values: values,
	}

	if err := graph.Render(chart.PNG, out); err != nil {
		return fmt.Errorf("render anomaly chart: %w", err)
	}
	return nil
}
