package amqp

import (
	"encoding/json"
	"time"

	"salesjournal/internal/core"
)

const (
	EventSaleRecorded = "sale.recorded"
	EventSaleDeleted  = "sale.deleted"
)

// SaleEvent announces a committed change to the journal. Recorded events
// carry the full transaction; deleted events only the id.
type SaleEvent struct {
	Type        string            `json:"type"`
	ID          int64             `json:"id"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

func NewSaleRecordedEvent(t core.Transaction) *SaleEvent {
	return &SaleEvent{
		Type:        EventSaleRecorded,
		ID:          t.ID,
		Transaction: &t,
		Timestamp:   time.Now(),
	}
}

func NewSaleDeletedEvent(id int64) *SaleEvent {
	return &SaleEvent{
		Type:      EventSaleDeleted,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *SaleEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SaleEventFromJSON(data []byte) (*SaleEvent, error) {
	var msg SaleEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
