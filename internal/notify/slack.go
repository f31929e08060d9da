package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxSlackErrBody bounds how much of a rejected response goes into the error.
const maxSlackErrBody = 256

// Slack posts notifications to an incoming webhook. Username, when set,
// overrides the webhook's default sender name.
type Slack struct {
	Webhook  string
	Username string
	Client   *http.Client
}

// NewSlack returns nil when webhook is empty.
func NewSlack(webhook string) *Slack {
	if webhook == "" {
		return nil
	}
	return &Slack{
		Webhook:  webhook,
		Username: "uptime-monitor",
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type slackPayload struct {
	Text     string `json:"text"`
	Username string `json:"username,omitempty"`
}

func (s *Slack) Send(ctx context.Context, title, text string) error {
	if s == nil || s.Webhook == "" {
		return errors.New("slack disabled")
	}
	body, err := json.Marshal(slackPayload{Text: "*" + title + "*\n" + text, Username: s.Username})
	if err != nil {
		return fmt.Errorf("slack payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Webhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("slack send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		// Slack explains rejections in a short plain-text body, e.g. "invalid_payload".
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxSlackErrBody))
		return fmt.Errorf("slack non-2xx: %d %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
