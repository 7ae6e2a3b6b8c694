package synth

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are an expert instructional designer writing short remedial lessons for learners who just failed a quiz. You reply with JSON only.`

func buildRemedialPrompt(weakTags []string, maxBlocks, maxChars int) string {
	minBlocks := 2
	if maxBlocks < minBlocks {
		minBlocks = maxBlocks
	}

	var b strings.Builder
	b.WriteString("A learner answered questions wrong on these concepts:\n")
	for _, t := range weakTags {
		fmt.Fprintf(&b, "- %s\n", t)
	}
	b.WriteString("\nWrite ONE cohesive remedial lesson that re-teaches all of them.\n")
	b.WriteString("Your response MUST be a single raw JSON object. Do not include any text, comments, or markdown fences.\n")
	b.WriteString(`The object must have exactly this shape: {"title": "...", "estimatedMinutes": 5, "difficulty": "beginner", "content": [{"type": "info", "text": "..."}]}`)
	b.WriteString("\n\nRules:\n")
	fmt.Fprintf(&b, "- content has between %d and %d blocks\n", minBlocks, maxBlocks)
	b.WriteString("- each block type is one of: info, scenario, decision, quiz\n")
	fmt.Fprintf(&b, "- each block text is at most %d characters\n", maxChars)
	b.WriteString("- estimatedMinutes is a whole number\n")
	return b.String()
}
