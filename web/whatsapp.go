package web

import (
	"log"
	"net/http"
	"strings"

	"patabol/utils"
)

// handleWhatsAppWebhook receives Twilio's form-encoded inbound message.
// The TwiML response stays empty; replies go out through the REST client
// so long paced broadcasts are possible.
func (s *Server) handleWhatsAppWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	from := r.PostFormValue("From")
	body := strings.TrimSpace(r.PostFormValue("Body"))

	w.Header().Set("Content-Type", "text/xml")
	w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Response></Response>`))

	if from == "" || body == "" {
		return
	}
	userID := utils.UserID(utils.ChannelWhatsApp, from)
	log.Printf("📩 whatsapp from=%s: %s", from, body)

	// Twilio expects the webhook back fast; the paced reply work runs
	// detached.
	go func() {
		replies := s.handleIncoming(userID, body)
		s.dispatch.Send(userID, replies)
	}()
}
