// Package notify delivers best-effort signals to the notification
// collaborator. The reward ledger is authoritative; nothing here may fail a
// committed transaction.
package notify

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mechchat/referral-service/internal/services"
)

type Client struct {
	url        string
	httpClient *http.Client
}

func New(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// RewardGranted posts the signal to the notification collaborator. Errors are
// logged and swallowed; delivery is fire-and-forget.
func (c *Client) RewardGranted(n services.RewardNotification) {
	if c.url == "" {
		return
	}

	body, err := json.Marshal(n)
	if err != nil {
		slog.Error("failed to encode reward notification", "error", err)
		return
	}

	resp, err := c.httpClient.Post(c.url, "application/json", bytes.NewReader(body))
	if err != nil {
		slog.Error("reward notification delivery failed",
			"referrer_id", n.ReferrerID, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		slog.Warn("reward notification rejected",
			"referrer_id", n.ReferrerID, "status", resp.StatusCode)
		return
	}
	slog.Info("reward notification delivered",
		"referrer_id", n.ReferrerID, "cycle", n.RewardCycle)
}
