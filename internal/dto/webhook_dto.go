package dto

// Event types delivered by the payment collaborator.
const (
	EventSubscriptionFirstActivated = "subscription_first_activated"
	EventSubscriptionRenewed        = "subscription_renewed"
)

type SubscriptionWebhook struct {
	APIVersion string            `json:"api_version"`
	Event      SubscriptionEvent `json:"event"`
}

type SubscriptionEvent struct {
	Type         string `json:"type"`
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	OccurredAtMs int64  `json:"occurred_at_ms"`
}

type WebhookAckResponse struct {
	Received    bool `json:"received"`
	Counted     bool `json:"counted"`
	CycleClosed bool `json:"cycle_closed"`
}
