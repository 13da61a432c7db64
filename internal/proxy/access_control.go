package proxy

import (
	"context"

	"relay-chat/internal/repository"
	relay_errors "relay-chat/pkg/errors"
)

// AccessControl is the membership gate consulted before every mutation.
// A missing chat and a non-participant caller are distinct failures
// (ErrNotFound vs ErrForbidden); conflating them would leak existence
// information inconsistently.
type AccessControl struct {
	chatRepo repository.ChatRepository
}

func NewAccessControl(chatRepo repository.ChatRepository) *AccessControl {
	return &AccessControl{chatRepo: chatRepo}
}

func (a *AccessControl) CanSendMessage(ctx context.Context, userID, chatID string) error {
	return a.EnsureParticipant(ctx, chatID, userID)
}

func (a *AccessControl) CanViewChat(ctx context.Context, userID, chatID string) error {
	return a.EnsureParticipant(ctx, chatID, userID)
}

func (a *AccessControl) ParticipantIDs(ctx context.Context, chatID string) ([]string, error) {
	if _, err := a.chatRepo.GetByID(ctx, chatID); err != nil {
		return nil, err
	}
	return a.chatRepo.ParticipantIDs(ctx, chatID)
}

func (a *AccessControl) EnsureParticipant(ctx context.Context, chatID, userID string) error {
	if _, err := a.chatRepo.GetByID(ctx, chatID); err != nil {
		return err
	}
	ok, err := a.chatRepo.IsParticipant(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return relay_errors.ErrForbidden
	}
	return nil
}
