package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type apiFunc func(w http.ResponseWriter, r *http.Request) error

func makeHTTPHandlerFunc(f apiFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// apiRouter builds the read-only HTTP view of the host. It observes the
// session registry only; no game state is reachable from here.
func (s *Server) apiRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/status", makeHTTPHandlerFunc(s.handleStatus)).Methods("GET")
	r.HandleFunc("/api/sessions", makeHTTPHandlerFunc(s.handleSessions)).Methods("GET")
	return r
}

func (s *Server) serveAPI() {
	logrus.WithFields(logrus.Fields{
		"listenAddr": s.APIListenAddr,
	}).Info("status API running")

	if err := http.ListenAndServe(s.APIListenAddr, s.apiRouter()); err != nil {
		logrus.WithError(err).Warn("status API stopped")
	}
}

type statusResponse struct {
	HostName       string `json:"hostName"`
	UptimeSeconds  int64  `json:"uptimeSeconds"`
	SessionsServed int    `json:"sessionsServed"`
	ActiveSessions int    `json:"activeSessions"`
}

type sessionResponse struct {
	Remote    string `json:"remote"`
	Team      string `json:"team"`
	Requested int    `json:"requestedRounds"`
	Played    int    `json:"playedRounds"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) error {
	s.sessionLock.RLock()
	resp := statusResponse{
		HostName:       s.HostName,
		UptimeSeconds:  int64(time.Since(s.started).Seconds()),
		SessionsServed: s.served,
		ActiveSessions: len(s.sessions),
	}
	s.sessionLock.RUnlock()
	return writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) error {
	s.sessionLock.RLock()
	resp := make([]sessionResponse, 0, len(s.sessions))
	for remote, info := range s.sessions {
		resp = append(resp, sessionResponse{
			Remote:    remote,
			Team:      info.Team,
			Requested: info.Requested,
			Played:    info.Played,
		})
	}
	s.sessionLock.RUnlock()
	return writeJSON(w, http.StatusOK, resp)
}
