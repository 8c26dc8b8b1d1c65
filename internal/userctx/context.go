package userctx

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	userIDContextKey  contextKey = "user_id"
	tokenIDContextKey contextKey = "token_id"
)

func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// GetUserID returns false when no authenticated user is attached.
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}

// WithTokenID attaches the jti of the bearer token used for the request.
func WithTokenID(ctx context.Context, jti string) context.Context {
	return context.WithValue(ctx, tokenIDContextKey, jti)
}

func GetTokenID(ctx context.Context) (string, bool) {
	jti, ok := ctx.Value(tokenIDContextKey).(string)
	return jti, ok && jti != ""
}
