package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mrtodp/fleetd/pkg/model"
)

// requestID generates a unique request identifier.
func requestID() string {
	return "req_" + uuid.New().String()[:8]
}

// respondOK writes a success response with the standard envelope.
func respondOK(w http.ResponseWriter, reqID string, data any) {
	respondJSON(w, http.StatusOK, reqID, data, nil, nil)
}

// respondCreated writes a 201 response with the standard envelope.
func respondCreated(w http.ResponseWriter, reqID string, data any) {
	respondJSON(w, http.StatusCreated, reqID, data, nil, nil)
}

// respondAccepted writes a 202 response with the standard envelope. Task
// submission acks use this: the task is admitted, not yet assigned.
func respondAccepted(w http.ResponseWriter, reqID string, data any) {
	respondJSON(w, http.StatusAccepted, reqID, data, nil, nil)
}

// respondList writes a success response with pagination.
func respondList(w http.ResponseWriter, reqID string, data any, pg *model.Pagination) {
	respondJSON(w, http.StatusOK, reqID, data, pg, nil)
}

// respondError writes an error response with the standard envelope.
func respondError(w http.ResponseWriter, reqID string, status int, apiErr *model.APIError) {
	respondJSON(w, status, reqID, nil, nil, apiErr)
}

// writeModelError maps scheduler domain errors onto API responses:
// duplicates conflict, unknown robots are not found, admission and drain
// validation failures are bad requests, everything else is internal.
func writeModelError(w http.ResponseWriter, reqID string, err error) {
	var (
		dupTask  *model.DuplicateTaskError
		dupRobot *model.DuplicateRobotError
		unknown  *model.UnknownRobotError
		capErr   *model.CapabilityError
		sizeErr  *model.PayloadSizeError
	)

	switch {
	case errors.As(err, &dupTask), errors.As(err, &dupRobot):
		respondError(w, reqID, http.StatusConflict,
			&model.APIError{Code: model.ErrConflict, Message: err.Error()})
	case errors.As(err, &unknown):
		respondError(w, reqID, http.StatusNotFound,
			&model.APIError{Code: model.ErrNotFound, Message: err.Error()})
	case errors.As(err, &capErr):
		details := make([]model.FieldError, 0, len(capErr.Missing))
		for _, missing := range capErr.Missing {
			details = append(details, model.FieldError{
				Field:   "required_capabilities",
				Message: "target robot lacks " + missing,
			})
		}
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError(err.Error(), details...))
	case errors.As(err, &sizeErr),
		errors.Is(err, model.ErrEmptyTaskID),
		errors.Is(err, model.ErrZeroPriority):
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError(err.Error()))
	default:
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
	}
}

func respondJSON(w http.ResponseWriter, status int, reqID string, data any, pg *model.Pagination, apiErr *model.APIError) {
	resp := model.Response{
		RequestID:  reqID,
		Timestamp:  time.Now().UTC(),
		Data:       data,
		Pagination: pg,
		Error:      apiErr,
	}
	if apiErr != nil {
		resp.Status = "error"
	} else {
		resp.Status = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
