package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-remedial/internal/apierr"
	auth "github.com/mind-engage/mindengage-remedial/internal/auth/middleware"
	"github.com/mind-engage/mindengage-remedial/internal/logger"
	"github.com/mind-engage/mindengage-remedial/internal/progress"
)

// GET /progress/{lessonId}: the caller's own record.
func GetProgressHandler(ledger ProgressReader, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := ledger.Get(r.Context(), auth.SubjectFromContext(r.Context()), chi.URLParam(r, "lessonId"))
		if errors.Is(err, progress.ErrNotFound) {
			apierr.Write(w, apierr.NotFound("no progress for lesson"))
			return
		}
		if err != nil {
			writeInternal(w, r, log, err, "lesson_id", chi.URLParam(r, "lessonId"))
			return
		}
		apierr.WriteJSON(w, http.StatusOK, rec)
	}
}

type remedialLessonView struct {
	ID        string          `json:"id"`
	LessonID  string          `json:"lessonId"`
	Model     string          `json:"model"`
	Lesson    json.RawMessage `json:"lesson"`
	CreatedAt int64           `json:"createdAt"`
}

// GET /remedial-lessons: lessons synthesized for the caller, newest first.
func ListRemedialLessonsHandler(archive RemedialLister, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := archive.ListForUser(r.Context(), auth.SubjectFromContext(r.Context()))
		if err != nil {
			writeInternal(w, r, log, err)
			return
		}
		out := make([]remedialLessonView, 0, len(rows))
		for _, a := range rows {
			out = append(out, remedialLessonView{
				ID:        a.ID,
				LessonID:  a.LessonID,
				Model:     a.Model,
				Lesson:    json.RawMessage(a.BodyJSON),
				CreatedAt: a.CreatedAt,
			})
		}
		apierr.WriteJSON(w, http.StatusOK, out)
	}
}
