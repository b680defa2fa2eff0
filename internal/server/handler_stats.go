package server

import "net/http"

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, s.sched.Stats())
}
