package websocket

import (
	"encoding/json"

	"github.com/isdelr/sample-app/internal/models"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// ActionMicropostCreated announces a new micropost in the receiver's feed.
const ActionMicropostCreated = "micropost.created"

// NewMicropostMessage encodes a micropost.created message.
func NewMicropostMessage(post models.Micropost) []byte {
	b, _ := json.Marshal(Message{Action: ActionMicropostCreated, Payload: post})
	return b
}
