package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with conservative defaults. Claim batches can be
// large, so the write timeout is generous relative to the header timeout.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
}
