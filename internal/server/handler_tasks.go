package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mrtodp/fleetd/pkg/model"
)

type scheduleTaskRequest struct {
	ID                   string    `json:"id"`
	Type                 string    `json:"type"`
	Priority             uint32    `json:"priority"`
	DeadlineMS           *int64    `json:"deadline_ms,omitempty"`
	TargetRobot          string    `json:"target_robot,omitempty"`
	RequiredCapabilities []string  `json:"required_capabilities,omitempty"`
	Payload              []float64 `json:"payload"`
}

func (s *Server) handleScheduleTask(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req scheduleTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}

	task := &model.Task{
		ID:                   req.ID,
		Type:                 req.Type,
		Priority:             req.Priority,
		Deadline:             req.DeadlineMS,
		TargetRobot:          req.TargetRobot,
		RequiredCapabilities: req.RequiredCapabilities,
		Payload:              req.Payload,
	}

	ack, err := s.sched.Schedule(r.Context(), task)
	if err != nil {
		writeModelError(w, reqID, err)
		return
	}
	respondAccepted(w, reqID, ack)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	snap, ok := s.sched.Status(id)
	if !ok {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("task", id))
		return
	}
	respondOK(w, reqID, snap)
}

type drainResponse struct {
	Assigned []model.AssignmentRecord `json:"assigned"`
	Count    int                      `json:"count"`
}

// handleDrain runs the synchronous batch drain. On abort the tasks popped
// before the failure stay consumed; the client sees only the error.
func (s *Server) handleDrain(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	records, err := s.sched.DrainAndProcess(r.Context())
	if err != nil {
		writeModelError(w, reqID, err)
		return
	}
	if records == nil {
		records = []model.AssignmentRecord{}
	}
	respondOK(w, reqID, drainResponse{Assigned: records, Count: len(records)})
}
