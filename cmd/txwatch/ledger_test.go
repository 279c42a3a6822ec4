package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vultisig/bigchain-connection/connection"
	"github.com/vultisig/bigchain-connection/libhttp"
)

const apiPrefix = "/api/v1/"

// ledgerServer answers "backlog" to the first status check of a transaction
// and "valid" afterwards. Unknown transactions get a 404.
type ledgerServer struct {
	*httptest.Server

	mu     sync.Mutex
	checks map[string]int
	posted []json.RawMessage
}

func newLedgerServer(t *testing.T) *ledgerServer {
	t.Helper()
	s := &ledgerServer{checks: map[string]int{}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+apiPrefix+"statuses", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("transaction_id")
		if id == "missing" {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
			return
		}
		s.mu.Lock()
		s.checks[id]++
		n := s.checks[id]
		s.mu.Unlock()

		status := "backlog"
		if n >= 2 {
			status = connection.StatusValid
		}
		writeJSON(w, http.StatusOK, connection.TxStatus{Status: status})
	})
	mux.HandleFunc("GET "+apiPrefix+"transactions/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"id": r.PathValue("id")})
	})
	mux.HandleFunc("POST "+apiPrefix+"transactions", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil || !json.Valid(body) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad body"})
			return
		}
		s.mu.Lock()
		s.posted = append(s.posted, body)
		s.mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write(body)
	})
	mux.HandleFunc("GET "+apiPrefix+"blocks/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"height": 7, "id": r.PathValue("id")})
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *ledgerServer) BasePath() string {
	return s.URL + apiPrefix
}

func (s *ledgerServer) Posted() []json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]json.RawMessage(nil), s.posted...)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestConnection(basePath string) *connection.Connection {
	logger := quietLogger()
	return connection.NewConnection(
		logger,
		connection.Config{
			BasePath: basePath,
			Poll: connection.PollConfig{
				Interval: 5 * time.Millisecond,
				Timeout:  5 * time.Second,
			},
		},
		libhttp.NewClient(logger, libhttp.Config{Timeout: 5 * time.Second}),
		nil,
	)
}
