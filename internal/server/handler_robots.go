package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mrtodp/fleetd/pkg/model"
)

type registerRobotRequest struct {
	ID           string   `json:"id"`
	Capabilities []string `json:"capabilities"`
}

func (s *Server) handleRegisterRobot(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req registerRobotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}
	if req.ID == "" {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError(
			"robot id is required",
			model.FieldError{Field: "id", Message: "must not be empty"}))
		return
	}

	if err := s.sched.RegisterRobot(model.Robot{ID: req.ID, Capabilities: req.Capabilities}); err != nil {
		writeModelError(w, reqID, err)
		return
	}

	robot, err := s.sched.Robot(req.ID)
	if err != nil {
		writeModelError(w, reqID, err)
		return
	}
	respondCreated(w, reqID, robot)
}

func (s *Server) handleListRobots(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	robots := s.sched.Robots()
	respondList(w, reqID, robots, &model.Pagination{
		Total:   len(robots),
		Limit:   len(robots),
		Offset:  0,
		HasMore: false,
	})
}

func (s *Server) handleGetRobot(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	robot, err := s.sched.Robot(id)
	if err != nil {
		writeModelError(w, reqID, err)
		return
	}
	respondOK(w, reqID, robot)
}
