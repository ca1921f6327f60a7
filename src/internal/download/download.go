package download

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math"
	"math/big"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/admi-n/chainintel/src/config"
	"github.com/admi-n/chainintel/src/internal/dataset"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Downloader 钱包活动下载器
type Downloader struct {
	Client          *ethclient.Client
	db              *sql.DB
	etherscanConfig EtherscanConfig
	rateLimiter     *RateLimiter
}

// NewDownloader 创建下载器（使用配置文件中的 RPC URL）
// db 可以为 nil，此时抓取结果只返回给调用方，不落库。
// 若 proxy 非空，会设置全局 HTTP Transport 的代理并传入 etherscan 配置
func NewDownloader(db *sql.DB, proxy string) (*Downloader, error) {
	// 如果传入 proxy，则设置全局默认 transport 的代理（影响 HTTP 客户端以及 ethclient 使用的默认 transport）
	if strings.TrimSpace(proxy) != "" {
		u, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("解析 proxy URL 失败: %w", err)
		}
		http.DefaultTransport = &http.Transport{
			Proxy: http.ProxyURL(u),
		}
	}

	// 从配置文件获取 RPC URL
	rpcURL, err := config.GetRPCURL()
	if err != nil {
		return nil, fmt.Errorf("获取 RPC URL 失败: %w", err)
	}

	// 连接以太坊节点（使用默认 transport，若上面设置了 proxy，则会生效）
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("连接以太坊节点失败: %w", err)
	}

	log.Printf("✅ 成功连接到以太坊节点: %s\n", rpcURL)

	// 初始化 etherscan 配置（从 config 读取），并注入 proxy
	ethersCfg := EtherscanConfig{
		APIKey:  config.GetEtherscanAPIKey(),
		BaseURL: config.GetEtherscanBaseURL(),
		Proxy:   strings.TrimSpace(proxy),
	}

	return &Downloader{
		Client:          client,
		db:              db,
		etherscanConfig: ethersCfg,
		rateLimiter:     NewRateLimiter(5), // 可调整速率
	}, nil
}

// GetCurrentBlock 获取当前最新区块号
func (d *Downloader) GetCurrentBlock(ctx context.Context) (uint64, error) {
	return d.Client.BlockNumber(ctx)
}

// WalletExists 检查钱包是否已在数据库中
func (d *Downloader) WalletExists(ctx context.Context, address string) (bool, error) {
	if d.db == nil {
		return false, nil
	}
	rows, err := config.GetWalletsByAddresses(ctx, d.db, []string{address})
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// FetchWalletFeatures 抓取单个地址的交易并聚合为特征行
func (d *Downloader) FetchWalletFeatures(ctx context.Context, address string) (*dataset.Wallet, error) {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("无效的以太坊地址: %s", address)
	}

	d.rateLimiter.Wait()

	txs, err := GetAddressTransactions(address, d.etherscanConfig)
	if err != nil {
		return nil, fmt.Errorf("获取交易列表失败: %w", err)
	}

	w := &dataset.Wallet{
		Address: strings.ToLower(address),
	}

	if len(txs) == 0 {
		w.SyncRaw()
		return w, nil
	}

	// 聚合：交易数、转出 ETH 总量、平均 gas price（gwei）、对手方熵
	var ethOut big.Float
	var gasPriceSum big.Float
	counterparties := make(map[string]int)
	gasSamples := 0

	lowerAddr := strings.ToLower(address)
	for _, tx := range txs {
		w.TxCount++

		if strings.EqualFold(tx.From, lowerAddr) {
			if wei, ok := new(big.Int).SetString(tx.Value, 10); ok {
				ethOut.Add(&ethOut, new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e18)))
			}
			if cp := strings.ToLower(strings.TrimSpace(tx.To)); cp != "" {
				counterparties[cp]++
			}
		} else {
			if cp := strings.ToLower(strings.TrimSpace(tx.From)); cp != "" {
				counterparties[cp]++
			}
		}

		if gp, ok := new(big.Int).SetString(tx.GasPrice, 10); ok {
			gasPriceSum.Add(&gasPriceSum, new(big.Float).Quo(new(big.Float).SetInt(gp), big.NewFloat(1e9)))
			gasSamples++
		}
	}

	w.EthValueSum, _ = ethOut.Float64()
	if gasSamples > 0 {
		avg, _ := new(big.Float).Quo(&gasPriceSum, big.NewFloat(float64(gasSamples))).Float64()
		w.GasPriceAvg = avg
	}
	w.TxEntropy = counterpartyEntropy(counterparties, len(txs))

	w.SyncRaw()

	// 附带当前余额（ETH），查询失败不影响特征行
	if balance, err := d.Client.BalanceAt(ctx, common.HexToAddress(address), nil); err == nil {
		eth, _ := new(big.Float).Quo(new(big.Float).SetInt(balance), big.NewFloat(1e18)).Float64()
		w.Raw["balance_eth"] = strconv.FormatFloat(eth, 'f', -1, 64)
	}

	return w, nil
}

// counterpartyEntropy 计算对手方分布的香农熵
func counterpartyEntropy(counts map[string]int, total int) float64 {
	if total <= 0 || len(counts) == 0 {
		return 0
	}
	var entropy float64
	for _, c := range counts {
		if c <= 0 {
			continue
		}
		p := float64(c) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// helper: 将失败地址追加到文件（每行一个），忽略写入错误但记录日志
func appendFailAddress(failFile, addr string) {
	if strings.TrimSpace(failFile) == "" || strings.TrimSpace(addr) == "" {
		return
	}
	f, err := os.OpenFile(failFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("⚠️  无法打开失败记录文件 %s: %v\n", failFile, err)
		return
	}
	defer f.Close()
	if _, err := f.WriteString(strings.TrimSpace(addr) + "\n"); err != nil {
		log.Printf("⚠️  无法写入失败记录文件 %s: %v\n", failFile, err)
	}
}

// FetchAddresses 按地址列表抓取钱包特征（用于 -fetch -file <file>）
// 返回成功抓取的特征行；失败地址写入 failLog。
func (d *Downloader) FetchAddresses(ctx context.Context, addresses []string, failLog string) ([]dataset.Wallet, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	var results []dataset.Wallet
	seen := make(map[string]struct{})
	for _, a := range addresses {
		addr := strings.TrimSpace(a)
		if addr == "" {
			continue
		}
		// 去重
		if _, ok := seen[strings.ToLower(addr)]; ok {
			continue
		}
		seen[strings.ToLower(addr)] = struct{}{}

		if !common.IsHexAddress(addr) {
			log.Printf("⚠️  跳过无效地址: %s\n", addr)
			appendFailAddress(failLog, addr)
			continue
		}

		// 检查是否已存在
		exists, err := d.WalletExists(ctx, addr)
		if err != nil {
			log.Printf("⚠️  检查钱包 %s 是否存在失败: %v\n", addr, err)
			appendFailAddress(failLog, addr)
			continue
		}
		if exists {
			log.Printf("⏭️  钱包已存在，跳过: %s\n", addr)
			continue
		}

		w, err := d.FetchWalletFeatures(ctx, addr)
		if err != nil {
			log.Printf("⚠️  抓取钱包特征失败: %s -> %v\n", addr, err)
			appendFailAddress(failLog, addr)
			continue
		}

		// 保存到数据库（配置了 db 时）
		if d.db != nil {
			if err := config.SaveWallet(ctx, d.db, w); err != nil {
				log.Printf("❌ 保存钱包失败: %s -> %v\n", addr, err)
				appendFailAddress(failLog, addr)
				continue
			}
		}

		results = append(results, *w)
		log.Printf("✅ 抓取钱包成功: %s (%d 笔交易)\n", addr, w.TxCount)

		// 避免请求过快
		time.Sleep(100 * time.Millisecond)
	}

	return results, nil
}

// Close 关闭连接
func (d *Downloader) Close() {
	if d.Client != nil {
		d.Client.Close()
	}
}
