package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirectJSON(t *testing.T) {
	p := NewParser()

	result, err := p.Parse(`{
		"wallet": "0xabc",
		"summary": "High-volume wallet with mixer exposure.",
		"tag": "Mixer Activity",
		"risk_factors": ["mixer", "high entropy"],
		"risk_score": 8.5
	}`)
	require.NoError(t, err)

	assert.Equal(t, "0xabc", result.Wallet)
	assert.Equal(t, "Mixer Activity", result.Tag)
	assert.Len(t, result.RiskFactors, 2)
	assert.Equal(t, 8.5, result.RiskScore)
	assert.True(t, result.IsHighRisk())
}

func TestParseMarkdownBlock(t *testing.T) {
	p := NewParser()

	response := "Here is the analysis:\n```json\n{\"summary\": \"Dormant wallet.\", \"risk_score\": 1.0}\n```\nLet me know if you need more."
	result, err := p.Parse(response)
	require.NoError(t, err)
	assert.Equal(t, "Dormant wallet.", result.Summary)
	assert.False(t, result.IsHighRisk())

	// 无语言标记的代码块
	response = "```\n{\"summary\": \"ok\"}\n```"
	result, err = p.Parse(response)
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Summary)
}

func TestParseCleanedResponse(t *testing.T) {
	p := NewParser()

	// 前后混入解释文本时退回大括号截取
	result, err := p.Parse(`Sure! {"summary": "Normal activity.", "risk_score": 2} Hope this helps.`)
	require.NoError(t, err)
	assert.Equal(t, "Normal activity.", result.Summary)
}

func TestParseFailure(t *testing.T) {
	p := NewParser()

	_, err := p.Parse("I cannot produce JSON for this wallet.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse AI response")
}

func TestParsePlainText(t *testing.T) {
	p := NewParser()

	result := p.ParsePlainText("  `The wallet shows low activity.`  ")
	assert.Equal(t, "The wallet shows low activity.", result.Summary)
}

func TestValidateResult(t *testing.T) {
	p := NewParser()

	assert.Error(t, p.ValidateResult(nil))
	assert.Error(t, p.ValidateResult(&SummaryResult{Summary: "   "}))
	assert.NoError(t, p.ValidateResult(&SummaryResult{Summary: "ok"}))
}

func TestToJSONSkipsInternalFields(t *testing.T) {
	r := &SummaryResult{
		Summary:     "ok",
		RawResponse: "raw text",
	}
	out, err := r.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, out, `"summary"`)
	assert.NotContains(t, out, "raw text")
}
