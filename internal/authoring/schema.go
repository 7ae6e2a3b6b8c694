package authoring

import (
	"fmt"

	"github.com/mind-engage/mindengage-remedial/internal/llm"
)

// lessonBatchSchema accepts a bare array of 1..n lessons.
func lessonBatchSchema(n int) *llm.Schema {
	str := map[string]any{"type": "string"}
	nonEmpty := map[string]any{"type": "string", "minLength": 1}
	strList := map[string]any{"type": "array", "items": str}

	question := map[string]any{
		"type":     "object",
		"required": []any{"id", "questionText", "quizType", "tags", "options", "correctAnswerId"},
		"properties": map[string]any{
			"id":           nonEmpty,
			"questionText": nonEmpty,
			"quizType":     str,
			"tags":         strList,
			"options": map[string]any{
				"type":     "array",
				"minItems": 2,
				"items": map[string]any{
					"type":       "object",
					"required":   []any{"id", "text"},
					"properties": map[string]any{"id": nonEmpty, "text": str},
				},
			},
			"correctAnswerId": nonEmpty,
			"explanation":     str,
		},
	}

	lesson := map[string]any{
		"type":     "object",
		"required": []any{"title", "xp", "estimatedMinutes", "difficulty", "tags", "content", "assessment"},
		"properties": map[string]any{
			"title":            nonEmpty,
			"xp":               map[string]any{"type": "integer", "minimum": 0},
			"estimatedMinutes": map[string]any{"type": "integer", "minimum": 1},
			"difficulty":       str,
			"tags":             strList,
			"content": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":       "object",
					"required":   []any{"type", "text"},
					"properties": map[string]any{"type": str, "text": str},
				},
			},
			"assessment": map[string]any{
				"type":     "object",
				"required": []any{"passingScore", "questions"},
				"properties": map[string]any{
					"passingScore": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
					"questions":    map[string]any{"type": "array", "minItems": 1, "items": question},
				},
			},
		},
	}

	return &llm.Schema{
		Name:        fmt.Sprintf("lesson-batch-%d", n),
		Description: "A batch of beginner lessons for one topic",
		Definition: map[string]any{
			"type":     "array",
			"minItems": 1,
			"maxItems": n,
			"items":    lesson,
		},
	}
}
