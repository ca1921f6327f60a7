package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt(t *testing.T) {
	out := BuildPrompt("Wallet: {{.Address}}\n{{.Features}}", map[string]string{
		"Address":  "0xabc",
		"Features": "- tx_count: 10",
	})
	assert.Equal(t, "Wallet: 0xabc\n- tx_count: 10", out)
}

func TestBuildPromptBadTemplate(t *testing.T) {
	out := BuildPrompt("{{.Broken", nil)
	assert.Contains(t, out, "模板解析失败")
	assert.Contains(t, out, "{{.Broken")
}

func TestFormatFeatures(t *testing.T) {
	out := FormatFeatures(map[string]string{
		"tx_count":      "120",
		"eth_value_sum": "45.5",
		"empty":         "",
	})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	// 键按字典序排序，空值跳过
	assert.Equal(t, []string{
		"- eth_value_sum: 45.5",
		"- tx_count: 120",
	}, lines)
}

func TestBuildSummaryPromptFallback(t *testing.T) {
	// 模板目录在测试工作目录下不存在，走默认模板
	out := BuildSummaryPrompt("0xabc", map[string]string{"tx_count": "10"}, "forensic")

	assert.Contains(t, out, "0xabc")
	assert.Contains(t, out, "- tx_count: 10")
	assert.Contains(t, out, "forensic")
	assert.Contains(t, out, "Return ONLY the JSON object")
	assert.NotContains(t, out, "{{.") // 所有占位符都已替换
}
