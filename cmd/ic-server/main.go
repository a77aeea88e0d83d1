package main

import (
	"net/http"
	"os"

	"infocollect/internal/server"
	"infocollect/internal/shared"
)

func main() {
	log := shared.NewLogger(os.Stdout)

	// Fixed: 0.0.0.0:8080, no env or flags
	cfg := shared.DefaultServerConfig()

	api := server.NewAPI(log, cfg)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: api.Routes(),
	}
	log.Printf("ic-server listening on %s", cfg.Addr())
	log.Printf("collect endpoint: POST %s", shared.CollectPath)

	log.Fatal(srv.ListenAndServe())
}
