package events

import "context"

// StreamBounty is the pub/sub channel carrying every bounty lifecycle event.
const StreamBounty = "events:bounty"

// Event types
const (
	EventBountyStatusChanged = "bounty_status_changed"
	EventPaymentCreated      = "payment_created"
	EventCommentAdded        = "comment_added"
	EventReviewAdded         = "review_added"
)

// Event payloads list the user ids that should receive the event under
// "recipients" so the WS hub can route without a database lookup.
type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// Recipients extracts the recipient user ids from the payload.
func (e Event) Recipients() []string {
	switch v := e.Payload["recipients"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, r := range v {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, Event) error { return nil }
