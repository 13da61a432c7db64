package events

import "encoding/json"

// Push-channel event names, server to client.
const (
	MessageNew       = "message:new"
	MessageEdited    = "message:edited"
	MessageDeleted   = "message:deleted"
	MessageDelivered = "message:delivered"
	MessageSeen      = "message:seen"
	TypingStart      = "typing:start"
	TypingStop       = "typing:stop"
	Error            = "error"
)

// Client to server event names.
const (
	ChatJoin  = "chat:join"
	ChatLeave = "chat:leave"
)

// Event is the wire envelope for every push-channel frame.
type Event struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// Marshal serializes the envelope. A nil slice is returned when the payload
// cannot be serialized; callers skip the broadcast in that case.
func (e Event) Marshal() []byte {
	b, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	return b
}

// ChatRoom is the fanout room name for a chat.
func ChatRoom(chatID string) string {
	return "chat:" + chatID
}

// Broadcaster pushes an event to every live subscriber of a room.
// Delivery is best-effort: the triggering request never observes fanout
// failures.
type Broadcaster interface {
	Broadcast(room string, ev Event)
}
