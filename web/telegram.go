package web

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"patabol/utils"
)

// telegramUpdate is the slice of the Bot API update we care about.
type telegramUpdate struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// handleTelegramWebhook receives Bot API updates. Telegram retries on
// non-200, so the webhook always acks and does the work inline; replies
// go back over the send API, not the webhook response.
func (s *Server) handleTelegramWebhook(w http.ResponseWriter, r *http.Request) {
	var update telegramUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Printf("❌ decoding telegram update: %v", err)
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusOK)

	if update.Message == nil || strings.TrimSpace(update.Message.Text) == "" {
		return
	}
	chatID := strconv.FormatInt(update.Message.Chat.ID, 10)
	userID := utils.UserID(utils.ChannelTelegram, chatID)
	text := strings.TrimSpace(update.Message.Text)
	log.Printf("📩 telegram chat=%s: %s", chatID, text)

	replies := s.handleIncoming(userID, text)
	s.dispatch.Send(userID, replies)
}
