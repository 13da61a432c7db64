package services

import (
	"context"

	"relay-chat/pkg/logger"
)

type ctxKey string

const userIDKey ctxKey = "auth_user_id"

// WithUserContext stores the authenticated user id on the context and
// mirrors it into the logger's field set.
func WithUserContext(ctx context.Context, userID string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, logger.UserIdKey, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}
