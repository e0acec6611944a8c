package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// ChangeMessage announces that a collection changed. It carries only the
// event type and record id; consumers reload what they need from the store.
type ChangeMessage struct {
	Type      string    `json:"type"`
	ID        string    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

var errMissingType = errors.New("change message without type")

// NewChangeMessage creates a change message stamped with the current time
func NewChangeMessage(eventType, id string) *ChangeMessage {
	return &ChangeMessage{
		Type:      eventType,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON creates a message from JSON bytes
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" {
		return nil, errMissingType
	}
	return &msg, nil
}
