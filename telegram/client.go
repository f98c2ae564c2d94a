// Package telegram is a minimal Bot API client: send messages, set the
// webhook. Inbound updates arrive through the web layer.
package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"regexp"
	"time"
)

const apiBase = "https://api.telegram.org/bot"

// sendThrottle spaces consecutive sends to stay under the Bot API per-chat
// rate limit.
const sendThrottle = 300 * time.Millisecond

type Client struct {
	token string
	http  *http.Client
	sleep func(time.Duration)
}

// NewClient builds a client for the given bot token. An empty token
// yields a disabled client whose sends are dropped with a log line.
func NewClient(token string) *Client {
	return &Client{
		token: token,
		http:  &http.Client{Timeout: 15 * time.Second},
		sleep: time.Sleep,
	}
}

func (c *Client) Enabled() bool { return c.token != "" }

var (
	boldRe   = regexp.MustCompile(`\*([^*]+)\*`)
	italicRe = regexp.MustCompile(`_([^_]+)_`)
)

// toHTML converts the bot's chat markup to Telegram HTML, escaping
// everything else.
func toHTML(text string) string {
	out := html.EscapeString(text)
	out = boldRe.ReplaceAllString(out, "<b>$1</b>")
	out = italicRe.ReplaceAllString(out, "<i>$1</i>")
	return out
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send delivers messages to one chat, converting markup and throttling
// between sends.
func (c *Client) Send(chatID string, messages []string) error {
	if !c.Enabled() {
		log.Printf("⚠️ telegram disabled, dropping %d messages for chat=%s", len(messages), chatID)
		return nil
	}
	for _, msg := range messages {
		if err := c.sendOne(chatID, msg); err != nil {
			return err
		}
		c.sleep(sendThrottle)
	}
	return nil
}

func (c *Client) sendOne(chatID, text string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:    chatID,
		Text:      toHTML(text),
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}
	resp, err := c.http.Post(apiBase+c.token+"/sendMessage", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	defer resp.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return fmt.Errorf("telegram sendMessage: decoding response: %w", err)
	}
	if !api.OK {
		return fmt.Errorf("telegram sendMessage: %s", api.Description)
	}
	return nil
}

// SetWebhook points the bot at our webhook URL.
func (c *Client) SetWebhook(url string) error {
	if !c.Enabled() {
		return nil
	}
	body, err := json.Marshal(map[string]string{"url": url})
	if err != nil {
		return err
	}
	resp, err := c.http.Post(apiBase+c.token+"/setWebhook", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram setWebhook: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram setWebhook: status %d: %s", resp.StatusCode, raw)
	}
	log.Printf("🔗 telegram webhook set to %s", url)
	return nil
}
