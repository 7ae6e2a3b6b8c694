package http

import (
	"encoding/json"
	"net/http"

	"github.com/mind-engage/mindengage-remedial/internal/apierr"
)

// POST /generate-lessons  { "topics": ["Fractions", "Ratios"] }
func GenerateLessonsHandler(gen LessonGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Topics []string `json:"topics"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apierr.Write(w, apierr.BadRequest("bad json"))
			return
		}
		if len(req.Topics) == 0 {
			apierr.Write(w, apierr.BadRequest("topics required"))
			return
		}
		results := gen.Generate(r.Context(), req.Topics)
		apierr.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok", "results": results})
	}
}
