package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"scrapesync-backend/internal/assert"
	"scrapesync-backend/internal/components/telemetry"
	"scrapesync-backend/internal/store"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	report_server_show_data = "server.show-data"
	report_server_session   = "server.session"
	report_server_panic     = "server.panic"
	report_server_request   = "server.request"
)

// Server exposes the stored records over HTTP, every request gets its own
// read-only unit of work.
type Server struct {
	store *store.Store
	tel   telemetry.API
}

func New(s *store.Store, tel telemetry.API) Server {
	assert.NotNil(s)
	assert.NotNil(tel)
	return Server{
		store: s,
		tel:   telemetry.NewScopedAPI("server", tel),
	}
}

// Handler returns the routes wrapped in tracing, logging and panic
// recovery.
func (s Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /show-data", s.withSession(http.HandlerFunc(s.showData)))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/plain; charset=utf-8")
		fmt.Fprint(w, "ok")
	})

	var handler http.Handler = mux
	handler = s.recovery(handler)
	handler = s.logger(handler)
	return otelhttp.NewHandler(handler, "scrapesync")
}

func (s Server) showData(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	snapshot, err := sess.Snapshot(r.Context())
	if err != nil {
		s.tel.ReportBroken(report_server_show_data, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	body, err := json.Marshal(snapshot)
	if err != nil {
		s.tel.ReportBroken(report_server_show_data, fmt.Errorf("encode: %w", err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("content-type", "application/json")
	_, err = w.Write(body)
	if err != nil {
		s.tel.ReportWarning(report_server_show_data, fmt.Errorf("write response: %w", err))
	}
}
