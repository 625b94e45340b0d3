package ai

import "fmt"

// systemInstruction frames the model as a CLT-style teacher and pins the
// register of the response.
const systemInstruction = `
你是一名精通教育心理学和 CLT（交际教学法）的资深名师。
你的回复准则：
1. **零废话**：不使用任何客套话。
2. **结构化**：严格按照标题输出。
3. **专业性**：对于理科，给出详细推导；对于文科，解释语境。
`

// buildPrompt produces the fixed three-section analysis prompt: problem
// analysis, solution steps, final answer. The section headers are part of the
// contract; the UI splits the response on them.
func buildPrompt(subject, questionText string) string {
	if questionText == "" {
		questionText = "见图"
	}

	return fmt.Sprintf(`
请严格按照以下格式解析错题：

### 1. 问题分析
[简述题目考察的核心点或误区]

### 2. 解题步骤
[步骤一：...]
[步骤二：...]

### 3. 最终结果
**[标准答案内容]**

科目: %s
题目信息: %s
`, subject, questionText)
}
