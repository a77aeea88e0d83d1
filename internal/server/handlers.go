package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"infocollect/internal/shared"

	"github.com/sirupsen/logrus"
)

type API struct {
	Log          logrus.FieldLogger
	MaxBodyBytes int64
}

func NewAPI(log logrus.FieldLogger, cfg shared.ServerConfig) *API {
	return &API{Log: log, MaxBodyBytes: cfg.MaxBodyBytes}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func (a *API) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	if a.MaxBodyBytes <= 0 {
		return io.ReadAll(r.Body)
	}
	return io.ReadAll(http.MaxBytesReader(w, r.Body, a.MaxBodyBytes))
}

// InfoCollect echoes the JSON body back inside a CollectResponse.
func (a *API) InfoCollect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, shared.Fail("method not allowed"))
		return
	}
	body, err := a.readBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, shared.Fail(fmt.Sprintf("failed to read request body: %v", err)))
		return
	}

	payload, err := shared.ParseValue(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, shared.Fail(fmt.Sprintf("failed to decode JSON object: %v", err)))
		return
	}

	a.Log.WithFields(logrus.Fields{
		"request_id": RequestID(r.Context()),
		"remote":     r.RemoteAddr,
	}).Info(payload.String())

	writeJSON(w, http.StatusOK, shared.OK(payload))
}
