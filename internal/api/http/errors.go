package http

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/mind-engage/mindengage-remedial/internal/apierr"
	"github.com/mind-engage/mindengage-remedial/internal/logger"
)

// writeInternal logs the cause of an unexpected failure and renders a bare 500.
func writeInternal(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error, kv ...interface{}) {
	if log != nil {
		fields := []interface{}{"method", r.Method, "path", r.URL.Path, "error", err}
		if id := middleware.GetReqID(r.Context()); id != "" {
			fields = append(fields, "request_id", id)
		}
		log.Error("request failed", append(fields, kv...)...)
	}
	apierr.Write(w, apierr.Internal(err))
}
