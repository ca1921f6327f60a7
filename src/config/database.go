package config

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/admi-n/chainintel/src/internal/dataset"
	_ "github.com/go-sql-driver/mysql"
)

// 数据库默认配置 - 可被 settings.yaml 的 database.dsn 覆盖
const (
	DefaultDBDriver = "mysql"
	DefaultDBDSN    = "root:123456@tcp(localhost:3306)/chainintel?parseTime=true&charset=utf8mb4"
)

// 全局连接池
var DBPool *sql.DB

// GetDBDriver 返回配置的数据库驱动名（mysql 或 postgres）
func GetDBDriver() string {
	if d := os.Getenv("CHAININTEL_DB_DRIVER"); d != "" {
		return strings.ToLower(d)
	}
	if globalSettings != nil && globalSettings.Database.Driver != "" {
		return strings.ToLower(globalSettings.Database.Driver)
	}
	return DefaultDBDriver
}

// GetDBDSN 返回配置的 DSN
func GetDBDSN() string {
	if dsn := os.Getenv("CHAININTEL_DB_DSN"); dsn != "" {
		return dsn
	}
	if globalSettings != nil && globalSettings.Database.DSN != "" {
		return globalSettings.Database.DSN
	}
	return DefaultDBDSN
}

// InitDB 按配置初始化连接池并 ping 验证。driver 为空时取配置值。
func InitDB() (*sql.DB, error) {
	driver := GetDBDriver()

	var db *sql.DB
	var err error
	switch driver {
	case "mysql":
		db, err = sql.Open("mysql", GetDBDSN())
	case "postgres", "pgx":
		db, err = openPostgres(GetDBDSN())
	default:
		return nil, fmt.Errorf("InitDB: unsupported driver %q (supported: mysql, postgres)", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("InitDB: %w", err)
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 验证连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("InitDB ping failed: %w", err)
	}

	DBPool = db
	return db, nil
}

// placeholder 根据驱动返回第 n 个参数占位符（mysql: ?，postgres: $n）
func placeholder(driver string, n int) string {
	if driver == "postgres" || driver == "pgx" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

const walletColumns = "wallet, tx_count, eth_value_sum, gas_price_avg, tx_entropy, cluster_id, anomaly_score"

// scanWalletRows 将查询结果扫描为 dataset.Wallet 列表
func scanWalletRows(rows *sql.Rows) ([]dataset.Wallet, error) {
	var out []dataset.Wallet
	for rows.Next() {
		var w dataset.Wallet
		var txCount sql.NullInt64
		var ethSum, gasAvg, entropy sql.NullFloat64
		var clusterID sql.NullInt64
		var anomaly sql.NullInt64

		if err := rows.Scan(&w.Address, &txCount, &ethSum, &gasAvg, &entropy, &clusterID, &anomaly); err != nil {
			return nil, err
		}

		w.TxCount = txCount.Int64
		w.EthValueSum = ethSum.Float64
		w.GasPriceAvg = gasAvg.Float64
		w.TxEntropy = entropy.Float64
		if clusterID.Valid {
			w.ClusterID = clusterID.Int64
			w.HasCluster = true
		}
		if anomaly.Valid {
			w.AnomalyScore = int(anomaly.Int64)
			w.HasAnomaly = true
		}

		out = append(out, w)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// GetWallets 从 wallets 表读取记录，limit<=0 表示不限制
func GetWallets(ctx context.Context, db *sql.DB, limit int) ([]dataset.Wallet, error) {
	if db == nil {
		return nil, fmt.Errorf("GetWallets: db is nil")
	}

	query := "SELECT " + walletColumns + " FROM wallets ORDER BY anomaly_score DESC, eth_value_sum DESC"
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWalletRows(rows)
}

// GetWalletsByAddresses 根据地址数组批量查询
func GetWalletsByAddresses(ctx context.Context, db *sql.DB, addresses []string) ([]dataset.Wallet, error) {
	if db == nil {
		return nil, fmt.Errorf("GetWalletsByAddresses: db is nil")
	}
	if len(addresses) == 0 {
		return nil, fmt.Errorf("GetWalletsByAddresses: addresses empty")
	}

	driver := GetDBDriver()
	placeholders := make([]string, len(addresses))
	args := make([]interface{}, len(addresses))
	for i, addr := range addresses {
		placeholders[i] = placeholder(driver, i+1)
		args[i] = strings.ToLower(strings.TrimSpace(addr))
	}

	query := fmt.Sprintf("SELECT %s FROM wallets WHERE wallet IN (%s)",
		walletColumns, strings.Join(placeholders, ","))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWalletRows(rows)
}

// SaveWallet 保存或更新一条钱包记录
func SaveWallet(ctx context.Context, db *sql.DB, w *dataset.Wallet) error {
	if db == nil {
		return fmt.Errorf("SaveWallet: db is nil")
	}

	driver := GetDBDriver()
	var query string
	if driver == "postgres" || driver == "pgx" {
		query = `
		INSERT INTO wallets (wallet, tx_count, eth_value_sum, gas_price_avg, tx_entropy, cluster_id, anomaly_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (wallet) DO UPDATE SET
			tx_count = EXCLUDED.tx_count,
			eth_value_sum = EXCLUDED.eth_value_sum,
			gas_price_avg = EXCLUDED.gas_price_avg,
			tx_entropy = EXCLUDED.tx_entropy,
			cluster_id = EXCLUDED.cluster_id,
			anomaly_score = EXCLUDED.anomaly_score
		`
	} else {
		query = `
		INSERT INTO wallets (wallet, tx_count, eth_value_sum, gas_price_avg, tx_entropy, cluster_id, anomaly_score)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			tx_count = VALUES(tx_count),
			eth_value_sum = VALUES(eth_value_sum),
			gas_price_avg = VALUES(gas_price_avg),
			tx_entropy = VALUES(tx_entropy),
			cluster_id = VALUES(cluster_id),
			anomaly_score = VALUES(anomaly_score)
		`
	}

	var clusterID interface{}
	if w.HasCluster {
		clusterID = w.ClusterID
	}
	var anomaly interface{}
	if w.HasAnomaly {
		anomaly = w.AnomalyScore
	}

	_, err := db.ExecContext(ctx, query,
		strings.ToLower(strings.TrimSpace(w.Address)),
		w.TxCount,
		w.EthValueSum,
		w.GasPriceAvg,
		w.TxEntropy,
		clusterID,
		anomaly,
	)

	return err
}

// SaveSummary 保存或更新一条钱包摘要记录
func SaveSummary(ctx context.Context, db *sql.DB, address string, s *dataset.Summary) error {
	if db == nil {
		return fmt.Errorf("SaveSummary: db is nil")
	}

	payload, err := s.MarshalPayload()
	if err != nil {
		return fmt.Errorf("SaveSummary: %w", err)
	}

	driver := GetDBDriver()
	var query string
	if driver == "postgres" || driver == "pgx" {
		query = `
		INSERT INTO wallet_summaries (wallet, summary, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (wallet) DO UPDATE SET
			summary = EXCLUDED.summary,
			payload = EXCLUDED.payload
		`
	} else {
		query = `
		INSERT INTO wallet_summaries (wallet, summary, payload)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE
			summary = VALUES(summary),
			payload = VALUES(payload)
		`
	}

	_, err = db.ExecContext(ctx, query,
		strings.ToLower(strings.TrimSpace(address)),
		s.Summary,
		string(payload),
	)

	return err
}

// GetSummaries 读取全部摘要记录（wallet -> Summary）
func GetSummaries(ctx context.Context, db *sql.DB) (map[string]*dataset.Summary, error) {
	if db == nil {
		return nil, fmt.Errorf("GetSummaries: db is nil")
	}

	rows, err := db.QueryContext(ctx, "SELECT wallet, summary, payload FROM wallet_summaries")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]*dataset.Summary)
	for rows.Next() {
		var wallet, summary string
		var payload sql.NullString
		if err := rows.Scan(&wallet, &summary, &payload); err != nil {
			return nil, err
		}
		s, err := dataset.ParseSummaryPayload([]byte(payload.String))
		if err != nil || s == nil {
			s = &dataset.Summary{}
		}
		s.Summary = summary
		out[strings.ToLower(wallet)] = s
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
