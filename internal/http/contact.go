package http

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"ai-hub/internal/services/mail"
)

type contactResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Contact uses its own {success, message} envelope, which the contact form expects.
func (h *Handlers) Contact(w http.ResponseWriter, r *http.Request) {
	var msg mail.ContactMessage
	if err := decodeJSON(w, r, &msg); err != nil {
		writeJSON(w, http.StatusBadRequest, contactResponse{Message: errInvalidBody.Error()})
		return
	}

	err := h.Mailer.SendContact(r.Context(), msg)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, contactResponse{Success: true, Message: "Message sent successfully"})
	case errors.Is(err, mail.ErrMissingFields), errors.Is(err, mail.ErrInvalidEmail):
		writeJSON(w, http.StatusBadRequest, contactResponse{Message: err.Error()})
	default:
		log.Error().Err(err).Msg("Contact request failed")
		writeJSON(w, http.StatusInternalServerError, contactResponse{Message: "Failed to send message"})
	}
}
