// Package web provides an HTTP status and control server for the relay daemon.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/bangbang"
	"github.com/sweeney/bangbang/internal/status"
)

// Switch is the relay as seen by the control endpoints.
type Switch interface {
	Set(s bangbang.State) error
	Bang() error
}

// Server serves the status page and relay controls over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	relay      Switch
}

// New creates a Server that reads state from tracker and switches relay.
// Metrics are served from gatherer when it is non-nil.
func New(addr string, tracker *status.Tracker, relay Switch, gatherer prometheus.Gatherer) *Server {
	s := &Server{tracker: tracker, relay: relay}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/set", s.handleSet)
	mux.HandleFunc("/bang", s.handleBang)
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	s.writeStatus(w)
}

func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	st, err := bangbang.ParseState(r.FormValue("state"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.respond(w, s.relay.Set(st))
}

func (s *Server) handleBang(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	s.respond(w, s.relay.Bang())
}

func (s *Server) respond(w http.ResponseWriter, err error) {
	if err == nil {
		s.writeStatus(w)
		return
	}

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, bangbang.ErrTransitionRejected):
		code = http.StatusConflict
	case errors.Is(err, bangbang.ErrHandlerFailed):
		code = http.StatusBadGateway
	}
	writeError(w, code, err)
}

func (s *Server) writeStatus(w http.ResponseWriter) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// ErrorJSON is the body returned when a control request fails.
type ErrorJSON struct {
	Error       string `json:"error"`
	RemainingMs int64  `json:"remaining_ms,omitempty"`
}

func writeError(w http.ResponseWriter, code int, err error) {
	body := ErrorJSON{Error: err.Error()}
	var te *bangbang.TransitionError
	if errors.As(err, &te) {
		body.RemainingMs = ceilMillis(te.Remaining())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

// ceilMillis rounds d up to whole milliseconds so a pending wait never
// encodes as zero.
func ceilMillis(d time.Duration) int64 {
	ms := d.Milliseconds()
	if d%time.Millisecond > 0 {
		ms++
	}
	return ms
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodPost {
		return true
	}
	w.Header().Set("Allow", http.MethodPost)
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	return false
}
