package types

import (
	"encoding/json"
	"time"
)

// WebhookEvent represents an outbound webhook event to be delivered
type WebhookEvent struct {
	ID        string          `json:"id"`
	EventName string          `json:"event_name"`
	TenantID  string          `json:"tenant_id"`
	UserID    string          `json:"user_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// payment event names
const (
	WebhookEventPaymentApproved = "payment.approved"
	WebhookEventPaymentRejected = "payment.rejected"
)

// report event names
const (
	WebhookEventReportGenerated = "report.generated"
)

// credit event names
const (
	WebhookEventCreditsLow = "credits.low"
)
