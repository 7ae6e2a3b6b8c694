package apierr

import (
	"encoding/json"
	"net/http"
)

type envelope struct {
	Error body `json:"error"`
}

type body struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Write renders err as the JSON error envelope.
func Write(w http.ResponseWriter, err error) {
	e := As(err)
	WriteJSON(w, e.Status, envelope{Error: body{Message: e.Public(), Code: e.Code}})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
