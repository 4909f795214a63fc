package events

import (
	"encoding/json"
	"testing"
)

func TestRecipients(t *testing.T) {
	e := Event{Type: EventBountyStatusChanged, Payload: map[string]any{"recipients": []string{"a", "b"}}}
	if got := e.Recipients(); len(got) != 2 || got[0] != "a" {
		t.Fatalf("unexpected recipients %v", got)
	}

	// after a round trip through redis the slice decodes as []any
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	var decoded Event
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if got := decoded.Recipients(); len(got) != 2 || got[1] != "b" {
		t.Fatalf("unexpected decoded recipients %v", got)
	}

	if got := (Event{Payload: map[string]any{}}).Recipients(); got != nil {
		t.Fatalf("expected no recipients, got %v", got)
	}
}
