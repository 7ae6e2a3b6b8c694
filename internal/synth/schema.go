package synth

import (
	"fmt"

	"github.com/mind-engage/mindengage-remedial/internal/llm"
)

// BlockTypes are the content block kinds a remedial lesson may use.
var BlockTypes = []any{"info", "scenario", "decision", "quiz"}

// RemedialLessonSchema describes one remedial lesson with at most maxBlocks
// blocks of at most maxChars characters each.
func RemedialLessonSchema(maxBlocks, maxChars int) *llm.Schema {
	return &llm.Schema{
		Name:        fmt.Sprintf("remedial-lesson-%d-%d", maxBlocks, maxChars),
		Description: "A short remedial lesson covering a learner's weak concepts",
		Definition: map[string]any{
			"type":     "object",
			"required": []any{"title", "estimatedMinutes", "difficulty", "content"},
			"properties": map[string]any{
				"title":            map[string]any{"type": "string", "minLength": 1},
				"estimatedMinutes": map[string]any{"type": "integer", "minimum": 1},
				"difficulty":       map[string]any{"type": "string", "minLength": 1},
				"content":          blockListSchema(maxBlocks, maxChars),
			},
		},
	}
}

func blockListSchema(maxBlocks, maxChars int) map[string]any {
	return map[string]any{
		"type":     "array",
		"minItems": 1,
		"maxItems": maxBlocks,
		"items": map[string]any{
			"type":     "object",
			"required": []any{"type", "text"},
			"properties": map[string]any{
				"type": map[string]any{"type": "string", "enum": BlockTypes},
				"text": map[string]any{"type": "string", "minLength": 1, "maxLength": maxChars},
			},
		},
	}
}
