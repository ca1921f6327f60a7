package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/admi-n/chainintel/src/config"
	"github.com/admi-n/chainintel/src/internal/ai/parser"
)

// Manager 管理 AI 客户端和摘要请求
type Manager struct {
	client    AIClient
	parser    *parser.Parser
	rateLimit *rateLimiter
	mu        sync.Mutex
}

type rateLimiter struct {
	requests chan struct{}
	interval time.Duration
}

func newRateLimiter(requestsPerMinute int) *rateLimiter {
	rl := &rateLimiter{
		requests: make(chan struct{}, requestsPerMinute),
		interval: time.Minute / time.Duration(requestsPerMinute),
	}

	for i := 0; i < requestsPerMinute; i++ {
		rl.requests <- struct{}{}
	}

	go func() {
		ticker := time.NewTicker(rl.interval)
		defer ticker.Stop()
		for range ticker.C {
			select {
			case rl.requests <- struct{}{}:
			default:
			}
		}
	}()

	return rl
}

func (rl *rateLimiter) Wait(ctx context.Context) error {
	select {
	case <-rl.requests:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type ManagerConfig struct {
	Provider       string
	APIKey         string
	BaseURL        string
	Model          string
	Timeout        time.Duration
	Proxy          string
	RequestsPerMin int
}

// NewManager 创建新的 AI 管理器
func NewManager(cfg ManagerConfig) (*Manager, error) {
	// 如果没有提供 APIKey，尝试从配置文件读取
	if cfg.APIKey == "" && (cfg.Provider == "openai" || cfg.Provider == "gpt4") {
		apiKey, err := config.GetOpenAIKey()
		if err != nil {
			return nil, fmt.Errorf("failed to get OpenAI API key from config: %w", err)
		}
		cfg.APIKey = apiKey
	}

	// 支持 DeepSeek
	if cfg.APIKey == "" && cfg.Provider == "deepseek" {
		apiKey, err := config.GetDeepSeekKey()
		if err != nil {
			return nil, fmt.Errorf("failed to get DeepSeek API key from config: %w", err)
		}
		cfg.APIKey = apiKey
	}

	// BaseURL / Model 未指定时从配置文件补全
	switch cfg.Provider {
	case "openai", "gpt4":
		if cfg.BaseURL == "" {
			cfg.BaseURL = config.GetOpenAIBaseURL()
		}
		if cfg.Model == "" {
			cfg.Model = config.GetOpenAIModel()
		}
	case "deepseek":
		if cfg.BaseURL == "" {
			cfg.BaseURL = config.GetDeepSeekBaseURL()
		}
		if cfg.Model == "" {
			cfg.Model = config.GetDeepSeekModel()
		}
	case "local-llm", "ollama":
		baseURL, model := config.GetLocalLLMConfig()
		if cfg.BaseURL == "" {
			cfg.BaseURL = baseURL
		}
		if cfg.Model == "" {
			cfg.Model = model
		}
	}

	// 创建 AI 客户端
	client, err := NewAIClient(AIClientConfig{
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		Model:    cfg.Model,
		Timeout:  cfg.Timeout,
		Proxy:    cfg.Proxy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}

	if cfg.RequestsPerMin <= 0 {
		cfg.RequestsPerMin = 20
	}

	return &Manager{
		client:    client,
		parser:    parser.NewParser(),
		rateLimit: newRateLimiter(cfg.RequestsPerMin),
	}, nil
}

// SummarizeWallet 为单个钱包生成结构化摘要
func (m *Manager) SummarizeWallet(ctx context.Context, address, prompt string) (*parser.SummaryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.rateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	fmt.Printf("🤖 正在使用 %s 生成钱包摘要...\n", m.client.GetName())

	startTime := time.Now()
	response, err := m.client.Summarize(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("AI summary failed: %w", err)
	}
	duration := time.Since(startTime)

	fmt.Printf("✅ 摘要完成，耗时: %v\n", duration)

	result, err := m.parser.Parse(response)
	if err != nil {
		fmt.Printf("⚠️  解析结果失败: %v，使用原始响应\n", err)
		result = m.parser.ParsePlainText(response)
		result.ParseError = err.Error()
	}

	result.Wallet = address
	result.RawResponse = response
	result.SummaryDuration = duration

	return result, nil
}

// SummarizeBatch 批量生成多个钱包的摘要
func (m *Manager) SummarizeBatch(ctx context.Context, wallets []WalletInput, concurrency int) ([]*parser.SummaryResult, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]*parser.SummaryResult, len(wallets))
	errChan := make(chan error, len(wallets))

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, wallet := range wallets {
		wg.Add(1)
		go func(idx int, w WalletInput) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			result, err := m.SummarizeWallet(ctx, w.Address, w.Prompt)
			if err != nil {
				errChan <- fmt.Errorf("wallet %d (%s) failed: %w", idx, w.Address, err)
				return
			}

			results[idx] = result
		}(i, wallet)
	}

	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return results, fmt.Errorf("batch summary completed with %d errors: %v", len(errs), errs[0])
	}

	return results, nil
}

type WalletInput struct {
	Address string
	Prompt  string
}

func (m *Manager) GetClientInfo() string {
	return m.client.GetName()
}

func (m *Manager) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}

func (m *Manager) TestConnection(ctx context.Context) error {
	fmt.Println("🔍 测试 AI 客户端连接...")

	testPrompt := "Please respond with 'OK' if you can read this message."
	_, err := m.client.Summarize(ctx, testPrompt)
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}

	fmt.Println("✅ AI 客户端连接成功!")
	return nil
}
