package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-remedial/internal/apierr"
	"github.com/mind-engage/mindengage-remedial/internal/lesson"
	"github.com/mind-engage/mindengage-remedial/internal/logger"
	"github.com/mind-engage/mindengage-remedial/internal/rbac"
)

// GET /lessons/{topicId}
func ListLessonsHandler(store LessonLister, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topicID := chi.URLParam(r, "topicId")
		if _, err := uuid.Parse(topicID); err != nil {
			apierr.Write(w, apierr.BadRequest("invalid topic id"))
			return
		}
		ls, err := store.ListByTopic(r.Context(), topicID)
		if err != nil {
			writeInternal(w, r, log, err, "topic_id", topicID)
			return
		}
		out := make([]lesson.Lesson, 0, len(ls))
		withKeys := rbac.Allowed(r, rbac.PermLessonViewKeys)
		for _, l := range ls {
			if !withKeys {
				l = l.WithoutAnswerKeys()
			}
			out = append(out, l)
		}
		apierr.WriteJSON(w, http.StatusOK, out)
	}
}
