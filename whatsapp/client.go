// Package whatsapp sends messages through Twilio's WhatsApp API. Inbound
// webhooks arrive through the web layer.
package whatsapp

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const apiBase = "https://api.twilio.com/2010-04-01"

// sendThrottle respects the Twilio sandbox rate limit between messages.
const sendThrottle = 500 * time.Millisecond

type Client struct {
	accountSID string
	authToken  string
	from       string
	http       *http.Client
	sleep      func(time.Duration)
}

// NewClient builds a Twilio client. Missing credentials yield a disabled
// client whose sends are dropped with a log line.
func NewClient(accountSID, authToken, from string) *Client {
	return &Client{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		http:       &http.Client{Timeout: 15 * time.Second},
		sleep:      time.Sleep,
	}
}

func (c *Client) Enabled() bool {
	return c.accountSID != "" && c.authToken != "" && c.from != ""
}

// Send delivers messages to one WhatsApp recipient. One retry on 429,
// matching Twilio's guidance for the sandbox.
func (c *Client) Send(to string, messages []string) error {
	if !c.Enabled() {
		log.Printf("⚠️ whatsapp disabled, dropping %d messages for %s", len(messages), to)
		return nil
	}
	for _, msg := range messages {
		if err := c.sendWithRetry(to, msg); err != nil {
			return err
		}
		c.sleep(sendThrottle)
	}
	return nil
}

func (c *Client) sendWithRetry(to, body string) error {
	status, err := c.sendOne(to, body)
	if status == http.StatusTooManyRequests {
		log.Printf("⏳ twilio 429, retrying send to %s", to)
		c.sleep(4 * time.Second)
		_, err = c.sendOne(to, body)
	}
	return err
}

func (c *Client) sendOne(to, body string) (int, error) {
	form := url.Values{}
	form.Set("From", c.from)
	form.Set("To", to)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", apiBase, c.accountSID)
	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("twilio send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("twilio send: status %d: %s", resp.StatusCode, raw)
	}
	return resp.StatusCode, nil
}
