package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ReportRequestMessage asks a worker to rebuild reports for a set of years.
// An empty Years slice means every year already persisted; a worker without
// persisted periods falls back to the current year.
type ReportRequestMessage struct {
	ID        string    `json:"id"`
	Years     []int     `json:"years"`
	Timestamp time.Time `json:"timestamp"`
}

// NewReportRequestMessage creates a request with a fresh message ID.
func NewReportRequestMessage(years []int) *ReportRequestMessage {
	return &ReportRequestMessage{
		ID:        uuid.NewString(),
		Years:     years,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func ReportRequestMessageFromJSON(data []byte) (*ReportRequestMessage, error) {
	var msg ReportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
