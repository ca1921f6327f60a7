package prompts

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/admi-n/chainintel/src/internal/ai/parser"
)

// BuildPrompt 使用模板和变量构建最终的 prompt
func BuildPrompt(templateContent string, variables map[string]string) string {
	tmpl, err := template.New("prompt").Parse(templateContent)
	if err != nil {
		return fmt.Sprintf("模板解析失败: %v\n原始模板:\n%s", err, templateContent)
	}

	var result strings.Builder
	if err := tmpl.Execute(&result, variables); err != nil {
		return fmt.Sprintf("模板执行失败: %v\n原始模板:\n%s", err, templateContent)
	}

	return result.String()
}

// BuildSummaryPrompt 构建钱包摘要专用的 prompt，包含特征表和输出格式要求
func BuildSummaryPrompt(address string, features map[string]string, strategy string) string {
	// 加载基础模板
	templateContent, err := LoadTemplate("summary", strategy)
	if err != nil {
		// 如果模板加载失败，使用默认模板
		templateContent = getDefaultSummaryTemplate()
	}

	// 构建变量映射
	variables := map[string]string{
		"Address":  address,
		"Features": FormatFeatures(features),
		"Strategy": strategy,
		"Schema":   parser.GetSchemaInstructions(),
	}

	return BuildPrompt(templateContent, variables)
}

// FormatFeatures 把特征表渲染成稳定顺序的 key: value 行
func FormatFeatures(features map[string]string) string {
	keys := make([]string, 0, len(features))
	for k := range features {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		v := features[k]
		if v == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", k, v)
	}
	return b.String()
}

// getDefaultSummaryTemplate 获取默认的摘要模板
func getDefaultSummaryTemplate() string {
	return `You are a blockchain forensic analyst profiling Ethereum wallets.

**Target Wallet:**
Wallet Address: {{.Address}}

**Aggregated On-Chain Features:**
{{.Features}}

**Profiling Strategy: {{.Strategy}}**

**Summary Task:**
Write a short factual forensic summary of this wallet's behavior based strictly on the features above.

{{.Schema}}`
}
