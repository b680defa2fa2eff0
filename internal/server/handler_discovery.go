package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "fleetd API",
		Version:     "v1",
		Description: "Robot fleet orchestration: priority task scheduling and capability-aware delegation",
		Endpoints: []endpointInfo{
			{"/api/v1/robots", []string{"GET", "POST"}, "Fleet registration and capability listing"},
			{"/api/v1/robots/{id}", []string{"GET"}, "Single robot detail"},
			{"/api/v1/tasks", []string{"POST"}, "Submit a task; responds 202 with the admission snapshot"},
			{"/api/v1/tasks/{id}", []string{"GET"}, "Task status snapshot"},
			{"/api/v1/tasks/drain", []string{"POST"}, "Synchronously assign every queued task in priority order"},
			{"/api/v1/stats", []string{"GET"}, "Scheduler counters and queue depth"},
			{"/api/v1/history", []string{"GET"}, "Recent task outcomes from the journal"},
			{"/api/v1/health", []string{"GET"}, "Server health and version"},
		},
	})
}
