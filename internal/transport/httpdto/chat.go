package httpdto

import "time"

type CreateChatRequest struct {
	Name         *string  `json:"name"`
	Participants []string `json:"participants"`
	GroupPic     *string  `json:"groupPic"`
}

// LastMessage is the single newest message shown in the chat list.
type LastMessage struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	SenderID  string    `json:"senderId"`
	CreatedAt time.Time `json:"createdAt"`
}

type ChatResponse struct {
	ID           string       `json:"id"`
	Name         *string      `json:"name"`
	IsGroup      bool         `json:"isGroup"`
	GroupPic     *string      `json:"groupPic"`
	Participants []UserShort  `json:"participants"`
	LastMessage  *LastMessage `json:"lastMessage"`
	UnreadCount  int64        `json:"unreadCount"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

type ChatListResponse struct {
	Chats []ChatResponse `json:"chats"`
}

// SeenResponse is both the mark-seen REST body and the message:seen
// broadcast payload.
type SeenResponse struct {
	ChatID            string `json:"chatId"`
	UserID            string `json:"userId,omitempty"`
	LastSeenMessageID string `json:"lastSeenMessageId"`
}
