package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"
)

// Notifier delivers a human-readable trade summary. Delivery is
// best-effort: implementations log failures and never surface them to the
// trade path.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// Discord posts messages to a Discord webhook.
type Discord struct {
	webhookURL string
	httpClient *http.Client
}

func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func (d *Discord) Notify(ctx context.Context, message string) {
	if d.webhookURL == "" {
		log.Printf("notify: discord webhook not configured, alert logged locally: %s", message)
		return
	}

	payload, err := json.Marshal(map[string]string{"content": message})
	if err != nil {
		log.Printf("notify: marshal discord payload: %v", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(payload))
	if err != nil {
		log.Printf("notify: create discord request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		log.Printf("notify: send discord alert: %v", err)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		log.Printf("notify: discord webhook returned %d", resp.StatusCode)
	}
}

// Nop discards every message. Used when no notification sink is
// configured.
type Nop struct{}

func (Nop) Notify(context.Context, string) {}
