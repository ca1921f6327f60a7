package parser

// GetExpectedJSONSchema 返回期望的 JSON 响应格式说明
func GetExpectedJSONSchema() string {
	return `{
  "wallet": "0x...",
  "summary": "Short factual forensic summary of the wallet's on-chain behavior",
  "tag": "Mixer Activity|Flash Loan|Contract Heavy|Dormant|High Entropy|No Tag",
  "risk_factors": [
    "Risk factor 1",
    "Risk factor 2"
  ],
  "risk_score": 7.5
}`
}

// GetSchemaInstructions 返回给 AI 的格式说明
func GetSchemaInstructions() string {
	return `Please analyze the wallet features and return your findings in the following JSON format:

` + GetExpectedJSONSchema() + `

Requirements:
1. Write a 2-4 sentence factual summary of the wallet's transaction behavior
2. Mention transaction volume, ETH flow, entropy, and cluster context where relevant
3. Choose exactly one behavior tag from the allowed list, or "No Tag" if none applies
4. List concrete risk factors observed in the features, or an empty list if none
5. Assign a risk score from 0-10 (10 being most risky)

Return ONLY the JSON object, without any additional text or markdown formatting.`
}

// CommonBehaviorTags 常见行为标签列表
var CommonBehaviorTags = []string{
	"Mixer Activity",
	"Flash Loan",
	"Contract Heavy",
	"Dormant",
	"High Entropy",
	"No Tag",
}
