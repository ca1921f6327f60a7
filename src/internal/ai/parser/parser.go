package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Parser 解析 AI 返回的摘要结果
type Parser struct {
	jsonExtractor *regexp.Regexp
}

// NewParser 创建新的解析器
func NewParser() *Parser {
	// 用于提取 JSON 代码块的正则表达式
	jsonRegex := regexp.MustCompile("```(?:json)?\n?([\\s\\S]*?)\n?```")

	return &Parser{
		jsonExtractor: jsonRegex,
	}
}

// Parse 解析 AI 响应文本
func (p *Parser) Parse(response string) (*SummaryResult, error) {
	// 尝试直接解析 JSON
	var result SummaryResult
	err := json.Unmarshal([]byte(response), &result)
	if err == nil {
		return &result, nil
	}

	// 尝试从 markdown 代码块中提取 JSON
	matches := p.jsonExtractor.FindStringSubmatch(response)
	if len(matches) > 1 {
		jsonStr := strings.TrimSpace(matches[1])
		err = json.Unmarshal([]byte(jsonStr), &result)
		if err == nil {
			return &result, nil
		}
	}

	// 如果仍然失败，尝试清理响应并再次解析
	cleaned := p.cleanResponse(response)
	err = json.Unmarshal([]byte(cleaned), &result)
	if err == nil {
		return &result, nil
	}

	// 解析失败，返回错误
	return nil, fmt.Errorf("failed to parse AI response as JSON: %w", err)
}

// cleanResponse 清理响应文本
func (p *Parser) cleanResponse(response string) string {
	// 移除常见的非 JSON 前缀
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	// 尝试找到第一个 { 和最后一个 }
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")

	if start >= 0 && end > start {
		response = response[start : end+1]
	}

	return response
}

// ParsePlainText 处理非结构化响应（备用方法）
//
// 本地模型经常忽略格式要求直接返回自由文本，
// 这种情况下把整段文本当作摘要正文。
func (p *Parser) ParsePlainText(response string) *SummaryResult {
	text := strings.TrimSpace(response)
	text = strings.Trim(text, "`")
	return &SummaryResult{
		Summary: text,
	}
}

// ValidateResult 验证解析结果的有效性
func (p *Parser) ValidateResult(result *SummaryResult) error {
	if result == nil {
		return fmt.Errorf("summary result is nil")
	}

	if strings.TrimSpace(result.Summary) == "" {
		return fmt.Errorf("summary text is empty")
	}

	return nil
}

// SummaryResult AI 摘要结果结构
type SummaryResult struct {
	Wallet          string        `json:"wallet,omitempty"`
	Summary         string        `json:"summary"`
	Tag             string        `json:"tag,omitempty"`
	RiskFactors     []string      `json:"risk_factors,omitempty"`
	RiskScore       float64       `json:"risk_score,omitempty"`
	RawResponse     string        `json:"-"` // 原始响应，不序列化
	ParseError      string        `json:"parse_error,omitempty"`
	SummaryDuration time.Duration `json:"-"`
}

// IsHighRisk 摘要是否标记为高危
func (r *SummaryResult) IsHighRisk() bool {
	return r.RiskScore >= 7.0
}

// ToJSON 转换为 JSON 字符串
func (r *SummaryResult) ToJSON() (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
