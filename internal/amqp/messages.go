package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Actions carried by sync messages.
const (
	ActionSync   = "sync"
	ActionDelete = "delete"
)

// PaymentSyncMessage asks the worker to reconcile one payment with the
// remote sheet: push it for sync, remove its row for delete. Only IDs
// travel on the wire; the worker re-reads payment data from local storage
// so a stale message can never overwrite a newer edit.
type PaymentSyncMessage struct {
	Action    string    `json:"action"`
	UserID    string    `json:"user_id"`
	PaymentID string    `json:"payment_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSyncMessage(userID, paymentID string) *PaymentSyncMessage {
	return &PaymentSyncMessage{
		Action:    ActionSync,
		UserID:    userID,
		PaymentID: paymentID,
		Timestamp: time.Now(),
	}
}

func NewDeleteMessage(userID, paymentID string) *PaymentSyncMessage {
	return &PaymentSyncMessage{
		Action:    ActionDelete,
		UserID:    userID,
		PaymentID: paymentID,
		Timestamp: time.Now(),
	}
}

func (m *PaymentSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MessageFromJSON(data []byte) (*PaymentSyncMessage, error) {
	var m PaymentSyncMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal sync message: %w", err)
	}
	if m.Action != ActionSync && m.Action != ActionDelete {
		return nil, fmt.Errorf("unknown sync action %q", m.Action)
	}
	if m.PaymentID == "" {
		return nil, fmt.Errorf("sync message without payment id")
	}
	return &m, nil
}
