package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SalesChangedMessage announces that the sale records behind a store were
// modified. Consumers drop cached record sets when they receive one; the
// message carries no records.
type SalesChangedMessage struct {
	ID        string    `json:"id"`
	Backend   string    `json:"backend"`
	Inserted  int       `json:"inserted"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSalesChangedMessage stamps a message with a fresh id and the current time.
func NewSalesChangedMessage(backend string, inserted int) *SalesChangedMessage {
	return &SalesChangedMessage{
		ID:        uuid.NewString(),
		Backend:   backend,
		Inserted:  inserted,
		Timestamp: time.Now(),
	}
}

func (m *SalesChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SalesChangedMessageFromJSON(data []byte) (*SalesChangedMessage, error) {
	var msg SalesChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
