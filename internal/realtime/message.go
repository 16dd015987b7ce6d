// Package realtime delivers freshly inserted notifications to connected
// clients over WebSocket.
package realtime

import (
	"encoding/json"

	"github.com/anonto42/inkwell/backend/internal/models"
)

// TypeNotificationInsert tags a message carrying a newly inserted row.
const TypeNotificationInsert = "notification.insert"

// Message is the envelope written to stream clients.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NotificationPayload decodes the row carried by an insert message.
func (m Message) NotificationPayload() (models.Notification, error) {
	var n models.Notification
	err := json.Unmarshal(m.Payload, &n)
	return n, err
}

func encodeInsert(n models.Notification) ([]byte, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: TypeNotificationInsert, Payload: payload})
}
