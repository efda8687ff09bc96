package razorpay

import (
	"encoding/json"
	"fmt"
)

// WebhookEvent is the closed set of events this service acts on.
// Payloads are validated into one of these variants before any business
// logic runs.
type WebhookEvent interface {
	isWebhookEvent()
}

// PaymentCaptured reports a captured payment. Receipt carries the local
// order id we sent at order creation; it may be empty on deliveries
// that omit it, in which case RemoteOrderID is the fallback key.
type PaymentCaptured struct {
	PaymentID     string
	RemoteOrderID string
	Receipt       string
}

func (PaymentCaptured) isWebhookEvent() {}

// UnknownEvent is any well-formed event this service does not handle.
type UnknownEvent struct {
	Event string
}

func (UnknownEvent) isWebhookEvent() {}

type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Receipt string `json:"receipt"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// ParseWebhookEvent validates the raw body into a tagged event.
// Malformed JSON or a captured payment without ids is rejected here,
// before any state is touched.
func ParseWebhookEvent(rawBody []byte) (WebhookEvent, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		return nil, fmt.Errorf("razorpay: malformed webhook body: %w", err)
	}
	if env.Event == "" {
		return nil, fmt.Errorf("razorpay: webhook body missing event")
	}

	switch env.Event {
	case "payment.captured":
		entity := env.Payload.Payment.Entity
		if entity.ID == "" || entity.OrderID == "" {
			return nil, fmt.Errorf("razorpay: payment.captured missing payment or order id")
		}
		return PaymentCaptured{
			PaymentID:     entity.ID,
			RemoteOrderID: entity.OrderID,
			Receipt:       entity.Receipt,
		}, nil
	default:
		return UnknownEvent{Event: env.Event}, nil
	}
}
