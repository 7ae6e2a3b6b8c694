package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mind-engage/mindengage-remedial/internal/apierr"
	"github.com/mind-engage/mindengage-remedial/internal/eventlog"
	"github.com/mind-engage/mindengage-remedial/internal/logger"
)

type eventView struct {
	Seq       int64           `json:"seq"`
	Type      string          `json:"type"`
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	CreatedAt int64           `json:"createdAt"`
}

// GET /events?type=llm.request&after=0&limit=100
func ListEventsHandler(events EventLister, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		typ := q.Get("type")
		if typ == "" {
			typ = eventlog.TypeLLMRequest
		}
		after, err := strconv.ParseInt(q.Get("after"), 10, 64)
		if q.Get("after") != "" && (err != nil || after < 0) {
			apierr.Write(w, apierr.BadRequest("invalid after"))
			return
		}
		limit := parseIntDefault(q.Get("limit"), 100)

		list, err := events.List(r.Context(), typ, after, limit)
		if err != nil {
			writeInternal(w, r, log, err, "type", typ)
			return
		}
		out := make([]eventView, 0, len(list))
		for _, e := range list {
			out = append(out, eventView{Seq: e.Seq, Type: e.Type, Key: e.Key, Data: json.RawMessage(e.DataJSON), CreatedAt: e.CreatedAt})
		}
		apierr.WriteJSON(w, http.StatusOK, out)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
