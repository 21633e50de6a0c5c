package amqp

import (
	"encoding/json"
	"time"
)

// PledgeCreatedMessage announces a new pledge record. The intake workflow
// publishes it after a successful insert; the stats server consumes it to
// invalidate cached reports instead of waiting out the TTL.
type PledgeCreatedMessage struct {
	ID        int64     `json:"id"`
	Reference string    `json:"reference"`
	Timestamp time.Time `json:"timestamp"`
}

func NewPledgeCreatedMessage(id int64, reference string) *PledgeCreatedMessage {
	return &PledgeCreatedMessage{
		ID:        id,
		Reference: reference,
		Timestamp: time.Now(),
	}
}

func (m *PledgeCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func PledgeCreatedMessageFromJSON(data []byte) (*PledgeCreatedMessage, error) {
	var msg PledgeCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
