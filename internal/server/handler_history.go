package server

import (
	"net/http"
	"strconv"

	"github.com/mrtodp/fleetd/internal/journal"
	"github.com/mrtodp/fleetd/pkg/model"
)

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	opts := model.DefaultListOptions()
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Offset = n
		}
	}
	opts.State = r.URL.Query().Get("state")
	opts.Clamp()

	if s.journal == nil {
		respondList(w, reqID, []journal.Entry{}, &model.Pagination{
			Limit:  opts.Limit,
			Offset: opts.Offset,
		})
		return
	}

	entries, total, err := s.journal.Recent(r.Context(), opts)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}

	respondList(w, reqID, entries, &model.Pagination{
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		HasMore: opts.Offset+len(entries) < total,
	})
}
