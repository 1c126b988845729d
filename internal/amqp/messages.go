package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ImportRecord is one statement row on the wire. Amounts travel as absolute
// cents; the reconciliation pipeline classifies the sign when staging.
type ImportRecord struct {
	Description string `json:"description"`
	Date        string `json:"date"` // 2006-01-02
	AmountCents int64  `json:"amount_cents"`
}

// ImportBatchMessage carries one parsed statement from the API to the import
// worker.
type ImportBatchMessage struct {
	OwnerID    uuid.UUID      `json:"owner_id"`
	TargetRole string         `json:"target_role"`
	Records    []ImportRecord `json:"records"`
	Timestamp  time.Time      `json:"timestamp"`
}

func NewImportBatchMessage(ownerID uuid.UUID, targetRole string, records []ImportRecord) *ImportBatchMessage {
	return &ImportBatchMessage{
		OwnerID:    ownerID,
		TargetRole: targetRole,
		Records:    records,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ImportBatchMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ImportBatchMessageFromJSON creates a message from JSON bytes
func ImportBatchMessageFromJSON(data []byte) (*ImportBatchMessage, error) {
	var msg ImportBatchMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
