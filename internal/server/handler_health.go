package server

import (
	"net/http"
	"runtime"
	"time"
)

type healthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	GoVersion  string `json:"go_version"`
	Uptime     string `json:"uptime"`
	Robots     int    `json:"robots"`
	QueueDepth int    `json:"queue_depth"`
	Journal    string `json:"journal"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	journalState := "disabled"
	if s.journal != nil {
		journalState = "enabled"
	}

	respondOK(w, reqID, healthResponse{
		Status:     "healthy",
		Version:    Version,
		GoVersion:  runtime.Version(),
		Uptime:     time.Since(s.startTime).Round(time.Second).String(),
		Robots:     len(s.sched.Robots()),
		QueueDepth: s.sched.QueueDepth(),
		Journal:    journalState,
	})
}
