package server

import (
	"net/http"

	"infocollect/internal/shared"
)

func (a *API) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(shared.CollectPath, a.WithRequestID(a.RecoverBadRequest(a.InfoCollect)))
	return mux
}
