package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// ExpenseChangedMessage announces a committed mutation of the expense set.
// It carries only ids and the store revision; consumers read the current
// set from storage.
type ExpenseChangedMessage struct {
	Operation string    `json:"operation"`
	IDs       []string  `json:"ids"`
	Revision  int64     `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseChangedMessage(op string, ids []string, revision int64) *ExpenseChangedMessage {
	return &ExpenseChangedMessage{
		Operation: op,
		IDs:       append([]string(nil), ids...),
		Revision:  revision,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ExpenseChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseChangedMessageFromJSON decodes a message and rejects one without
// an operation.
func ExpenseChangedMessageFromJSON(data []byte) (*ExpenseChangedMessage, error) {
	var msg ExpenseChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Operation == "" {
		return nil, errors.New("message has no operation")
	}
	return &msg, nil
}
