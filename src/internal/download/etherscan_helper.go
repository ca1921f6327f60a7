package download

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// EtherscanConfig Etherscan API 配置
type EtherscanConfig struct {
	APIKey  string
	BaseURL string
	Proxy   string // 可选的 HTTP 代理 URL（例如 http://127.0.0.1:7897）
}

// EtherscanTx Etherscan 交易记录结构
type EtherscanTx struct {
	BlockNumber string `json:"blockNumber"`
	TimeStamp   string `json:"timeStamp"`
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	Gas         string `json:"gas"`
	GasPrice    string `json:"gasPrice"`
	GasUsed     string `json:"gasUsed"`
	IsError     string `json:"isError"`
	Input       string `json:"input"`
}

// txListResponse Etherscan API 响应结构
type txListResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Result  []EtherscanTx `json:"result"`
}

// GetAddressTransactions 从 Etherscan 获取地址的交易列表
func GetAddressTransactions(address string, config EtherscanConfig) ([]EtherscanTx, error) {
	// 清理输入
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("空的地址传入 GetAddressTransactions")
	}

	// 构建 API URL 使用 url.Values 避免拼接错误
	base := strings.TrimRight(config.BaseURL, "/")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("解析 Etherscan BaseURL 失败: %w", err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api"

	q := url.Values{}
	q.Set("module", "account")
	q.Set("action", "txlist")
	q.Set("address", address)
	q.Set("startblock", "0")
	q.Set("endblock", "99999999")
	q.Set("sort", "asc")
	q.Set("apikey", strings.TrimSpace(config.APIKey))
	// chainid 可选保留
	q.Set("chainid", "1")

	u.RawQuery = q.Encode()
	finalURL := u.String()

	// 准备 HTTP 客户端（超时与可选代理）
	client := &http.Client{
		Timeout: 20 * time.Second,
	}

	if strings.TrimSpace(config.Proxy) != "" {
		if pu, perr := url.Parse(config.Proxy); perr == nil {
			client.Transport = &http.Transport{
				Proxy: http.ProxyURL(pu),
			}
		} else {
			return nil, fmt.Errorf("解析 Etherscan proxy 失败: %w", perr)
		}
	}

	// 重试逻辑：短暂网络错误/EOF/超时时重试
	var lastErr error
	maxAttempts := 3
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// 创建请求并加上 User-Agent
		req, _ := http.NewRequest("GET", finalURL, nil)
		req.Header.Set("User-Agent", "chainintel/1.0 (+https://github.com/)")

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			// 判断是否为临时或超时错误，如果是则重试
			if isTemporaryNetErr(err) && attempt < maxAttempts {
				sleep := time.Duration(attempt) * 500 * time.Millisecond
				time.Sleep(sleep)
				continue
			}
			return nil, fmt.Errorf("请求 Etherscan API 失败: %w (url=%s)", err, finalURL)
		}

		// 确保关闭响应体
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			if (readErr == io.ErrUnexpectedEOF || isTemporaryNetErr(readErr)) && attempt < maxAttempts {
				time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
				continue
			}
			return nil, fmt.Errorf("读取 Etherscan 响应失败: %w (url=%s)", readErr, finalURL)
		}

		// 检查 HTTP 状态码
		if resp.StatusCode != http.StatusOK {
			snippet := string(body)
			if len(snippet) > 1024 {
				snippet = snippet[:1024]
			}
			return nil, fmt.Errorf("Etherscan 返回非 200 状态: %d, body: %s", resp.StatusCode, snippet)
		}

		// 解析 JSON
		var txResp txListResponse
		if jerr := json.Unmarshal(body, &txResp); jerr != nil {
			lastErr = jerr
			// JSON 解析错误偶发于截断响应，做少量重试
			if attempt < maxAttempts {
				time.Sleep(time.Duration(attempt) * 300 * time.Millisecond)
				continue
			}
			return nil, fmt.Errorf("解析 Etherscan JSON 失败: %w (url=%s)", jerr, finalURL)
		}

		// status != "1" 且 message 为 "No transactions found" 表示地址无交易（不是网络错误）
		if txResp.Status != "1" {
			if strings.Contains(txResp.Message, "No transactions") {
				return nil, nil
			}
			return nil, fmt.Errorf("Etherscan 业务错误: %s (url=%s)", txResp.Message, finalURL)
		}

		return txResp.Result, nil
	}

	// 所有尝试失败，返回最后一个错误
	if lastErr != nil {
		return nil, fmt.Errorf("请求 Etherscan 多次失败: %w (url=%s)", lastErr, finalURL)
	}
	return nil, fmt.Errorf("请求 Etherscan 未知错误 (url=%s)", finalURL)
}

// isTemporaryNetErr 判断是否为可重试的网络错误
func isTemporaryNetErr(err error) bool {
	if err == nil {
		return false
	}
	// net.Error 暴露 Timeout() / Temporary()
	if ne, ok := err.(net.Error); ok {
		return ne.Timeout() || ne.Temporary()
	}
	// 常见的 IO 错误也视为临时
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return true
	}
	// 其余默认不重试
	return false
}

// RateLimiter 简单的速率限制器
type RateLimiter struct {
	ticker *time.Ticker
}

// NewRateLimiter 创建速率限制器（每秒最多 requestsPerSecond 个请求）
func NewRateLimiter(requestsPerSecond int) *RateLimiter {
	interval := time.Second / time.Duration(requestsPerSecond)
	return &RateLimiter{
		ticker: time.NewTicker(interval),
	}
}

// Wait 等待直到可以发送下一个请求
func (r *RateLimiter) Wait() {
	<-r.ticker.C
}

// Stop 停止速率限制器
func (r *RateLimiter) Stop() {
	r.ticker.Stop()
}
