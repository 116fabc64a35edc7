package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/MikeSquared-Agency/factfind/internal/elevenlabs"
)

const maxWebhookBody = 10 << 20

// hollyConversation receives the voice agent's webhooks. Once the envelope
// parses the call is always acknowledged; pipeline failures are logged by
// the processor and never surface here.
func (s *Server) hollyConversation(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	if s.deps.WebhookSecret != "" {
		header := r.Header.Get(elevenlabs.SignatureHeader)
		if err := elevenlabs.VerifySignature(body, header, s.deps.WebhookSecret, s.now()); err != nil {
			s.logger.Warn("webhook signature rejected", "error", err)
			writeError(w, http.StatusUnauthorized, "invalid signature")
			return
		}
	}

	if _, err := s.deps.Webhooks.HandleWebhook(r.Context(), body); err != nil {
		if errors.Is(err, elevenlabs.ErrInvalidPayload) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.internalError(w, "webhook processing failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "received"})
}
