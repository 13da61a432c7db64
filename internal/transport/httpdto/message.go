package httpdto

import "time"

// UserShort is the sender summary embedded in message payloads.
type UserShort struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	ProfilePic *string `json:"profilePic"`
}

// MessageShort is the reduced view of a reply target.
type MessageShort struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	SenderID  string     `json:"senderId"`
	CreatedAt time.Time  `json:"createdAt"`
	EditedAt  *time.Time `json:"editedAt"`
	IsDeleted bool       `json:"isDeleted"`
}

// MessageResponse is the enriched message view returned by the REST layer
// and broadcast on the push channel. Both always carry the same shape.
type MessageResponse struct {
	ID               string        `json:"id"`
	ChatID           string        `json:"chatId"`
	SenderID         string        `json:"senderId"`
	Sender           UserShort     `json:"sender"`
	Content          string        `json:"content"`
	CreatedAt        time.Time     `json:"createdAt"`
	EditedAt         *time.Time    `json:"editedAt"`
	IsDeleted        bool          `json:"isDeleted"`
	ReplyToMessageID *string       `json:"replyToMessageId"`
	ReplyToMessage   *MessageShort `json:"replyToMessage"`
}

type SendMessageRequest struct {
	Text string `json:"text"`
}

type ReplyMessageRequest struct {
	Text             string `json:"text"`
	ReplyToMessageID string `json:"replyToMessageId"`
}

type EditMessageRequest struct {
	Text string `json:"text"`
}

type MessagesPage struct {
	Messages   []MessageResponse `json:"messages"`
	NextCursor *string           `json:"nextCursor"`
}

// DeliveredEvent is the payload of a message:delivered broadcast.
type DeliveredEvent struct {
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
}

// DeletedEvent is the payload of a message:deleted broadcast.
type DeletedEvent struct {
	ID string `json:"id"`
}
