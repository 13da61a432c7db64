package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"relay-chat/internal/commands"
	"relay-chat/internal/domain/chat"
	"relay-chat/internal/domain/message"
	"relay-chat/internal/proxy"
	"relay-chat/internal/repository"
	"relay-chat/internal/transport/httpdto"
	relay_errors "relay-chat/pkg/errors"
	"relay-chat/pkg/events"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageService is the message lifecycle manager: send, reply, edit,
// soft-delete, pagination and delivery acknowledgements. Every mutation is
// authorized through AccessControl, committed to the store, and only then
// fanned out to the chat room.
type MessageService struct {
	db          *gorm.DB
	messageRepo repository.MessageRepository
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	access      *proxy.AccessControl
	broadcaster events.Broadcaster
	bus         *commands.Bus
}

func NewMessageService(db *gorm.DB, messageRepo repository.MessageRepository, chatRepo repository.ChatRepository, userRepo repository.UserRepository, access *proxy.AccessControl, broadcaster events.Broadcaster, bus *commands.Bus) *MessageService {
	if bus == nil {
		bus = commands.NewBus()
	}
	svc := &MessageService{
		db:          db,
		messageRepo: messageRepo,
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		access:      access,
		broadcaster: broadcaster,
		bus:         bus,
	}
	svc.registerHandlers()
	return svc
}

func (s *MessageService) registerHandlers() {
	s.bus.Register("message.send", commands.HandlerFunc(func(ctx context.Context, cmd commands.Command) (commands.Result, error) {
		typed, ok := cmd.(commands.SendMessageCommand)
		if !ok {
			return commands.Result{}, relay_errors.ErrInvalidInput
		}
		return s.executeSend(ctx, typed)
	}))
	s.bus.Register("message.reply", commands.HandlerFunc(func(ctx context.Context, cmd commands.Command) (commands.Result, error) {
		typed, ok := cmd.(commands.ReplyMessageCommand)
		if !ok {
			return commands.Result{}, relay_errors.ErrInvalidInput
		}
		return s.executeReply(ctx, typed)
	}))
	s.bus.Register("message.edit", commands.HandlerFunc(func(ctx context.Context, cmd commands.Command) (commands.Result, error) {
		typed, ok := cmd.(commands.EditMessageCommand)
		if !ok {
			return commands.Result{}, relay_errors.ErrInvalidInput
		}
		return s.executeEdit(ctx, typed)
	}))
	s.bus.Register("message.delete", commands.HandlerFunc(func(ctx context.Context, cmd commands.Command) (commands.Result, error) {
		typed, ok := cmd.(commands.DeleteMessageCommand)
		if !ok {
			return commands.Result{}, relay_errors.ErrInvalidInput
		}
		return s.executeDelete(ctx, typed)
	}))
}

func (s *MessageService) Bus() *commands.Bus {
	return s.bus
}

func (s *MessageService) Send(ctx context.Context, cmd commands.SendMessageCommand) (httpdto.MessageResponse, error) {
	res, err := s.bus.Execute(ctx, cmd)
	if err != nil {
		return httpdto.MessageResponse{}, err
	}
	return res.Payload.(httpdto.MessageResponse), nil
}

func (s *MessageService) Reply(ctx context.Context, cmd commands.ReplyMessageCommand) (httpdto.MessageResponse, error) {
	res, err := s.bus.Execute(ctx, cmd)
	if err != nil {
		return httpdto.MessageResponse{}, err
	}
	return res.Payload.(httpdto.MessageResponse), nil
}

func (s *MessageService) Edit(ctx context.Context, cmd commands.EditMessageCommand) (httpdto.MessageResponse, error) {
	res, err := s.bus.Execute(ctx, cmd)
	if err != nil {
		return httpdto.MessageResponse{}, err
	}
	return res.Payload.(httpdto.MessageResponse), nil
}

func (s *MessageService) SoftDelete(ctx context.Context, cmd commands.DeleteMessageCommand) error {
	_, err := s.bus.Execute(ctx, cmd)
	return err
}

func (s *MessageService) executeSend(ctx context.Context, cmd commands.SendMessageCommand) (commands.Result, error) {
	if err := s.access.CanSendMessage(ctx, cmd.SenderID, cmd.ChatID); err != nil {
		return commands.Result{}, err
	}

	m := message.Message{
		ID:        uuid.NewString(),
		ChatID:    cmd.ChatID,
		SenderID:  cmd.SenderID,
		Content:   strings.TrimSpace(cmd.Content),
		CreatedAt: time.Now(),
	}
	if err := s.persistNewMessage(ctx, &m); err != nil {
		return commands.Result{}, err
	}

	resp, err := s.toResponse(ctx, m)
	if err != nil {
		return commands.Result{}, err
	}

	// Fanout strictly after the transaction committed.
	s.broadcaster.Broadcast(events.ChatRoom(m.ChatID), events.Event{Event: events.MessageNew, Payload: resp})

	return commands.Result{AggregateID: m.ID, Payload: resp}, nil
}

func (s *MessageService) executeReply(ctx context.Context, cmd commands.ReplyMessageCommand) (commands.Result, error) {
	if err := s.access.CanSendMessage(ctx, cmd.SenderID, cmd.ChatID); err != nil {
		return commands.Result{}, err
	}

	original, err := s.messageRepo.GetByID(ctx, cmd.ReplyToMessageID)
	if err != nil {
		return commands.Result{}, err
	}
	// Reply targets must live in the same chat.
	if original.ChatID != cmd.ChatID {
		return commands.Result{}, relay_errors.ErrInvalidInput
	}

	m := message.Message{
		ID:               uuid.NewString(),
		ChatID:           cmd.ChatID,
		SenderID:         cmd.SenderID,
		Content:          strings.TrimSpace(cmd.Content),
		ReplyToMessageID: sql.NullString{String: original.ID, Valid: true},
		CreatedAt:        time.Now(),
	}
	if err := s.persistNewMessage(ctx, &m); err != nil {
		return commands.Result{}, err
	}

	resp, err := s.toResponse(ctx, m)
	if err != nil {
		return commands.Result{}, err
	}

	s.broadcaster.Broadcast(events.ChatRoom(m.ChatID), events.Event{Event: events.MessageNew, Payload: resp})

	return commands.Result{AggregateID: m.ID, Payload: resp}, nil
}

// persistNewMessage writes the message, advances the sender's own watermark
// to it (the sender never sees their own message as unread) and bumps the
// chat's activity timestamp, all in one transaction.
func (s *MessageService) persistNewMessage(ctx context.Context, m *message.Message) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		msgRepo := repository.NewMessageRepository(tx)
		chatRepo := repository.NewChatRepository(tx)

		if err := msgRepo.Create(ctx, m); err != nil {
			return err
		}
		rs := chat.ReadStatus{
			ChatID:            m.ChatID,
			UserID:            m.SenderID,
			LastSeenMessageID: m.ID,
			LastSeenAt:        m.CreatedAt,
		}
		if err := chatRepo.UpsertReadStatus(ctx, &rs); err != nil {
			return err
		}
		return chatRepo.TouchUpdatedAt(ctx, m.ChatID, m.CreatedAt)
	})
}

func (s *MessageService) executeEdit(ctx context.Context, cmd commands.EditMessageCommand) (commands.Result, error) {
	m, err := s.messageRepo.GetByID(ctx, cmd.MessageID)
	if err != nil {
		return commands.Result{}, err
	}
	if m.SenderID != cmd.EditorID {
		return commands.Result{}, relay_errors.ErrForbidden
	}
	// A tombstoned message is terminal.
	if m.IsDeleted {
		return commands.Result{}, relay_errors.ErrConflict
	}

	m.Content = strings.TrimSpace(cmd.Content)
	m.EditedAt = sql.NullTime{Time: time.Now(), Valid: true}
	if err := s.messageRepo.Update(ctx, m); err != nil {
		return commands.Result{}, err
	}

	resp, err := s.toResponse(ctx, m)
	if err != nil {
		return commands.Result{}, err
	}

	s.broadcaster.Broadcast(events.ChatRoom(m.ChatID), events.Event{Event: events.MessageEdited, Payload: resp})

	return commands.Result{AggregateID: m.ID, Payload: resp}, nil
}

func (s *MessageService) executeDelete(ctx context.Context, cmd commands.DeleteMessageCommand) (commands.Result, error) {
	m, err := s.messageRepo.GetByID(ctx, cmd.MessageID)
	if err != nil {
		return commands.Result{}, err
	}
	if m.SenderID != cmd.RequesterID {
		return commands.Result{}, relay_errors.ErrForbidden
	}

	m.IsDeleted = true
	m.DeletedAt = sql.NullTime{Time: time.Now(), Valid: true}
	m.Content = message.DeletedContent
	if err := s.messageRepo.Update(ctx, m); err != nil {
		return commands.Result{}, err
	}

	// Deleted content never leaves the server; the payload is the id only.
	s.broadcaster.Broadcast(events.ChatRoom(m.ChatID), events.Event{
		Event:   events.MessageDeleted,
		Payload: httpdto.DeletedEvent{ID: m.ID},
	})

	return commands.Result{AggregateID: m.ID}, nil
}

// Paginate returns up to limit messages strictly older than the cursor
// message, newest first. A cursor that no longer resolves leaves the page
// unanchored so clients fall back to the newest messages instead of erroring.
func (s *MessageService) Paginate(ctx context.Context, userID, chatID string, limit int, cursor string) (httpdto.MessagesPage, error) {
	if err := s.access.CanViewChat(ctx, userID, chatID); err != nil {
		return httpdto.MessagesPage{}, err
	}
	if limit <= 0 {
		limit = 20
	}

	var anchor *message.Message
	if cursor != "" {
		m, err := s.messageRepo.GetByID(ctx, cursor)
		if err == nil && m.ChatID == chatID {
			anchor = &m
		} else if err != nil && !errors.Is(err, relay_errors.ErrNotFound) {
			return httpdto.MessagesPage{}, err
		}
	}

	// limit+1 fetch to detect whether another page remains.
	msgs, err := s.messageRepo.ListBefore(ctx, chatID, anchor, limit+1)
	if err != nil {
		return httpdto.MessagesPage{}, err
	}
	hasNext := len(msgs) > limit
	if hasNext {
		msgs = msgs[:limit]
	}

	page := httpdto.MessagesPage{Messages: make([]httpdto.MessageResponse, 0, len(msgs))}
	for _, m := range msgs {
		resp, err := s.toResponse(ctx, m)
		if err != nil {
			return httpdto.MessagesPage{}, err
		}
		page.Messages = append(page.Messages, resp)
	}
	if hasNext && len(msgs) > 0 {
		next := msgs[len(msgs)-1].ID
		page.NextCursor = &next
	}
	return page, nil
}

// MarkDelivered records a delivery receipt for (message, user). Idempotent:
// re-marking refreshes the timestamp and never errors.
func (s *MessageService) MarkDelivered(ctx context.Context, messageID, userID string) error {
	m, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}

	d := message.Delivery{MessageID: messageID, UserID: userID, DeliveredAt: time.Now()}
	if err := s.messageRepo.UpsertDelivery(ctx, &d); err != nil {
		return err
	}

	s.broadcaster.Broadcast(events.ChatRoom(m.ChatID), events.Event{
		Event:   events.MessageDelivered,
		Payload: httpdto.DeliveredEvent{MessageID: messageID, UserID: userID},
	})
	return nil
}

func (s *MessageService) toResponse(ctx context.Context, m message.Message) (httpdto.MessageResponse, error) {
	sender, err := s.userRepo.GetByID(ctx, m.SenderID)
	if err != nil {
		return httpdto.MessageResponse{}, err
	}

	resp := httpdto.MessageResponse{
		ID:        m.ID,
		ChatID:    m.ChatID,
		SenderID:  m.SenderID,
		Sender:    userShort(sender),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		IsDeleted: m.IsDeleted,
	}
	if m.EditedAt.Valid {
		t := m.EditedAt.Time
		resp.EditedAt = &t
	}
	if m.ReplyToMessageID.Valid {
		id := m.ReplyToMessageID.String
		resp.ReplyToMessageID = &id
		target, err := s.messageRepo.GetByID(ctx, id)
		if err == nil {
			short := httpdto.MessageShort{
				ID:        target.ID,
				Content:   target.Content,
				SenderID:  target.SenderID,
				CreatedAt: target.CreatedAt,
				IsDeleted: target.IsDeleted,
			}
			if target.EditedAt.Valid {
				et := target.EditedAt.Time
				short.EditedAt = &et
			}
			resp.ReplyToMessage = &short
		} else if !errors.Is(err, relay_errors.ErrNotFound) {
			return httpdto.MessageResponse{}, err
		}
	}
	return resp, nil
}
