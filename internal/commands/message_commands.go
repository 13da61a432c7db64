package commands

import (
	"strings"

	relay_errors "relay-chat/pkg/errors"
)

// SendMessageCommand creates a message in a chat.
type SendMessageCommand struct {
	ChatID   string
	SenderID string
	Content  string
}

func (c SendMessageCommand) CommandType() string { return "message.send" }

func (c SendMessageCommand) Validate() error {
	if c.ChatID == "" || c.SenderID == "" {
		return relay_errors.ErrInvalidInput
	}
	if strings.TrimSpace(c.Content) == "" {
		return relay_errors.ErrInvalidInput
	}
	return nil
}

// ReplyMessageCommand creates a message linked to an existing one in the
// same chat.
type ReplyMessageCommand struct {
	ChatID           string
	SenderID         string
	Content          string
	ReplyToMessageID string
}

func (c ReplyMessageCommand) CommandType() string { return "message.reply" }

func (c ReplyMessageCommand) Validate() error {
	if c.ChatID == "" || c.SenderID == "" || c.ReplyToMessageID == "" {
		return relay_errors.ErrInvalidInput
	}
	if strings.TrimSpace(c.Content) == "" {
		return relay_errors.ErrInvalidInput
	}
	return nil
}

// EditMessageCommand replaces a message's content. Only the original
// sender may edit.
type EditMessageCommand struct {
	MessageID string
	EditorID  string
	Content   string
}

func (c EditMessageCommand) CommandType() string { return "message.edit" }

func (c EditMessageCommand) Validate() error {
	if c.MessageID == "" || c.EditorID == "" {
		return relay_errors.ErrInvalidInput
	}
	if strings.TrimSpace(c.Content) == "" {
		return relay_errors.ErrInvalidInput
	}
	return nil
}

// DeleteMessageCommand tombstones a message. Only the original sender may
// delete.
type DeleteMessageCommand struct {
	MessageID   string
	RequesterID string
}

func (c DeleteMessageCommand) CommandType() string { return "message.delete" }

func (c DeleteMessageCommand) Validate() error {
	if c.MessageID == "" || c.RequesterID == "" {
		return relay_errors.ErrInvalidInput
	}
	return nil
}
