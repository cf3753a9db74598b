package amqp

import (
	"encoding/json"
	"time"
)

// Ledger event types, also used as routing keys on the topic exchange.
const (
	EventCustomerCreated = "customer.created"
	EventCustomerDeleted = "customer.deleted"
	EventDeliveryCreated = "delivery.created"
	EventDeliveryDeleted = "delivery.deleted"
	EventPaymentRecorded = "payment.recorded"
	EventPaymentDeleted  = "payment.deleted"
	EventExpenseCreated  = "expense.created"
	EventExpenseDeleted  = "expense.deleted"
	EventDataRestored    = "data.restored"
)

// LedgerEvent announces a change to a business's records. It carries only
// identifiers and headline figures; consumers read the full record from
// the store if they need it.
type LedgerEvent struct {
	Type       string    `json:"type"`
	Business   string    `json:"business"` // storage key
	RecordID   string    `json:"recordId,omitempty"`
	FlatNumber string    `json:"flatNumber,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event stamped with the current time.
func NewLedgerEvent(eventType, business, recordID string) *LedgerEvent {
	return &LedgerEvent{
		Type:      eventType,
		Business:  business,
		RecordID:  recordID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
