package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-remedial/internal/apierr"
	auth "github.com/mind-engage/mindengage-remedial/internal/auth/middleware"
	"github.com/mind-engage/mindengage-remedial/internal/submission"
)

const maxSubmissionBytes = 1 << 20

// POST /assessments/{lessonId}/submit  { "answers": [{ "questionId": "...", "selectedOptionId": "..." }] }
func SubmitAssessmentHandler(s Submitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in submission.Input
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmissionBytes))
		if err := dec.Decode(&in); err != nil {
			apierr.Write(w, apierr.BadRequest("invalid submission format"))
			return
		}
		res, err := s.Submit(r.Context(), auth.SubjectFromContext(r.Context()), chi.URLParam(r, "lessonId"), in)
		if err != nil {
			apierr.Write(w, err)
			return
		}
		apierr.WriteJSON(w, http.StatusOK, res)
	}
}
