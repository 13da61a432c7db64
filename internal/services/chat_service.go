package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"relay-chat/internal/domain/chat"
	"relay-chat/internal/domain/user"
	"relay-chat/internal/proxy"
	"relay-chat/internal/repository"
	"relay-chat/internal/transport/httpdto"
	relay_errors "relay-chat/pkg/errors"
	"relay-chat/pkg/events"

	"github.com/google/uuid"
)

// ChatService owns chat creation, the chat list, and the read-tracking
// engine (unread counts and the mark-seen watermark).
type ChatService struct {
	chatRepo    repository.ChatRepository
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	access      *proxy.AccessControl
	broadcaster events.Broadcaster
}

func NewChatService(chatRepo repository.ChatRepository, messageRepo repository.MessageRepository, userRepo repository.UserRepository, access *proxy.AccessControl, broadcaster events.Broadcaster) *ChatService {
	return &ChatService{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		access:      access,
		broadcaster: broadcaster,
	}
}

func (s *ChatService) Create(ctx context.Context, creatorID string, req httpdto.CreateChatRequest) (httpdto.ChatResponse, error) {
	if len(req.Participants) == 0 {
		return httpdto.ChatResponse{}, relay_errors.ErrInvalidInput
	}

	seen := make(map[string]struct{}, len(req.Participants)+1)
	ids := make([]string, 0, len(req.Participants)+1)
	for _, id := range append([]string{creatorID}, req.Participants...) {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return httpdto.ChatResponse{}, err
	}
	if len(users) != len(ids) {
		return httpdto.ChatResponse{}, relay_errors.ErrNotFound
	}

	c := chat.Chat{
		ID:      uuid.NewString(),
		IsGroup: len(ids) > 2,
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		c.Name = sql.NullString{String: strings.TrimSpace(*req.Name), Valid: true}
	}
	if req.GroupPic != nil && strings.TrimSpace(*req.GroupPic) != "" {
		c.GroupPic = sql.NullString{String: strings.TrimSpace(*req.GroupPic), Valid: true}
	}

	if err := s.chatRepo.Create(ctx, &c, ids); err != nil {
		return httpdto.ChatResponse{}, err
	}
	return s.toResponse(c, users), nil
}

// List returns the caller's chats, newest activity first, each with
// participants, last message and unread count.
func (s *ChatService) List(ctx context.Context, userID string) ([]httpdto.ChatResponse, error) {
	chats, err := s.chatRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]httpdto.ChatResponse, 0, len(chats))
	for _, c := range chats {
		ids := make([]string, 0, len(c.Participants))
		for _, p := range c.Participants {
			ids = append(ids, p.UserID)
		}
		users, err := s.userRepo.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}

		resp := s.toResponse(c, users)

		last, err := s.messageRepo.Latest(ctx, c.ID)
		if err == nil {
			resp.LastMessage = &httpdto.LastMessage{
				ID:        last.ID,
				Content:   last.Content,
				SenderID:  last.SenderID,
				CreatedAt: last.CreatedAt,
			}
		} else if !errors.Is(err, relay_errors.ErrNotFound) {
			return nil, err
		}

		count, err := s.UnreadCount(ctx, c.ID, userID)
		if err != nil {
			return nil, err
		}
		resp.UnreadCount = count

		out = append(out, resp)
	}
	return out, nil
}

// UnreadCount derives the unread count from the caller's watermark against
// the chat's message log. A missing or dangling watermark counts the whole
// chat as unread; undercounting is never acceptable.
func (s *ChatService) UnreadCount(ctx context.Context, chatID, userID string) (int64, error) {
	total, err := s.messageRepo.CountByChat(ctx, chatID)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}

	rs, err := s.chatRepo.GetReadStatus(ctx, chatID, userID)
	if err != nil {
		if errors.Is(err, relay_errors.ErrNotFound) {
			return total, nil
		}
		return 0, err
	}

	seen, err := s.messageRepo.GetByID(ctx, rs.LastSeenMessageID)
	if err != nil {
		if errors.Is(err, relay_errors.ErrNotFound) {
			return total, nil
		}
		return 0, err
	}

	return s.messageRepo.CountAfter(ctx, chatID, seen.CreatedAt)
}

// MarkSeen advances the caller's watermark to the chat's newest message and
// tells the room. Idempotent: repeated calls without new messages leave the
// watermark where it is and emit the same event shape.
func (s *ChatService) MarkSeen(ctx context.Context, chatID, userID string) (httpdto.SeenResponse, error) {
	if err := s.access.EnsureParticipant(ctx, chatID, userID); err != nil {
		return httpdto.SeenResponse{}, err
	}

	latest, err := s.messageRepo.Latest(ctx, chatID)
	if err != nil {
		return httpdto.SeenResponse{}, err
	}

	rs := chat.ReadStatus{
		ChatID:            chatID,
		UserID:            userID,
		LastSeenMessageID: latest.ID,
		LastSeenAt:        latest.CreatedAt,
	}
	if err := s.chatRepo.UpsertReadStatus(ctx, &rs); err != nil {
		return httpdto.SeenResponse{}, err
	}

	s.broadcaster.Broadcast(events.ChatRoom(chatID), events.Event{
		Event: events.MessageSeen,
		Payload: httpdto.SeenResponse{
			ChatID:            chatID,
			UserID:            userID,
			LastSeenMessageID: latest.ID,
		},
	})

	return httpdto.SeenResponse{ChatID: chatID, LastSeenMessageID: latest.ID}, nil
}

func (s *ChatService) toResponse(c chat.Chat, users []user.User) httpdto.ChatResponse {
	resp := httpdto.ChatResponse{
		ID:        c.ID,
		IsGroup:   c.IsGroup,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.Name.Valid {
		name := c.Name.String
		resp.Name = &name
	}
	if c.GroupPic.Valid {
		pic := c.GroupPic.String
		resp.GroupPic = &pic
	}
	resp.Participants = make([]httpdto.UserShort, 0, len(users))
	for _, u := range users {
		resp.Participants = append(resp.Participants, userShort(u))
	}
	return resp
}
