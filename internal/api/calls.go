package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MikeSquared-Agency/factfind/internal/elevenlabs"
)

type outboundCallRequest struct {
	ToNumber string `json:"to_number"`
}

// outboundCall asks the voice agent to phone a client. Platform rejections
// are relayed with their own status.
func (s *Server) outboundCall(w http.ResponseWriter, r *http.Request) {
	var req outboundCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid JSON: "+err.Error())
		return
	}
	if req.ToNumber == "" {
		writeError(w, http.StatusUnprocessableEntity, "to_number is required")
		return
	}
	if s.deps.Calls == nil || !s.deps.Calls.Configured() {
		writeError(w, http.StatusInternalServerError, "XI_API_KEY not configured")
		return
	}

	reply, err := s.deps.Calls.OutboundCall(r.Context(), req.ToNumber)
	if err != nil {
		var apiErr *elevenlabs.APIError
		if errors.As(err, &apiErr) {
			writeError(w, apiErr.Status, "ElevenLabs API error: "+apiErr.Body)
			return
		}
		s.logger.Error("outbound call failed", "error", err)
		writeError(w, http.StatusBadGateway, "failed to reach ElevenLabs API: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, reply)
}
