package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-remedial/internal/apierr"
	"github.com/mind-engage/mindengage-remedial/internal/logger"
	"github.com/mind-engage/mindengage-remedial/internal/profile"
)

const maxProfileBytes = 256 << 10

// GET /user-profile/{userId}
func GetProfileHandler(store ProfileStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.Get(r.Context(), chi.URLParam(r, "userId"))
		if errors.Is(err, profile.ErrNotFound) {
			apierr.Write(w, apierr.NotFound("profile not found"))
			return
		}
		if err != nil {
			writeInternal(w, r, log, err, "profile_user_id", chi.URLParam(r, "userId"))
			return
		}
		apierr.WriteJSON(w, http.StatusOK, p)
	}
}

// PUT /user-profile/{userId}  body: the profile document (a JSON object)
func PutProfileHandler(store ProfileStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxProfileBytes))
		if err != nil {
			apierr.Write(w, apierr.BadRequest("profile too large"))
			return
		}
		p, err := store.Put(r.Context(), chi.URLParam(r, "userId"), json.RawMessage(raw))
		if errors.Is(err, profile.ErrNotJSONDoc) {
			apierr.Write(w, apierr.BadRequest(err.Error()))
			return
		}
		if err != nil {
			writeInternal(w, r, log, err, "profile_user_id", chi.URLParam(r, "userId"))
			return
		}
		apierr.WriteJSON(w, http.StatusOK, p)
	}
}
