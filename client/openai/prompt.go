package openai

import "strings"

const systemPrompt = `You rewrite code selections. Reply with the rewritten text only, with no explanation and no surrounding code fence.
The input holds one or more selections separated by a line containing exactly:
%SENTINEL%
Keep every separator line in place and return exactly one rewritten selection per input selection, in the same order.`

// RewriteMessages builds the chat messages asking a model to rewrite the
// combined selections according to instruction.
func RewriteMessages(instruction, combined, sentinel string) []Message {
	user := combined
	if instruction = strings.TrimSpace(instruction); instruction != "" {
		user = "Instruction: " + instruction + "\n\n" + combined
	}
	return []Message{
		{Role: "system", Content: strings.ReplaceAll(systemPrompt, "%SENTINEL%", sentinel)},
		{Role: "user", Content: user},
	}
}
