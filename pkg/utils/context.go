package utils

import (
	"context"
)

type contextKey string

const (
	ConfirmActorKey contextKey = "confirm_actor"
)

// SetConfirmActor records who authorized a payment confirmation.
func SetConfirmActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ConfirmActorKey, actor)
}

func GetConfirmActor(ctx context.Context) (string, bool) {
	actorVal := ctx.Value(ConfirmActorKey)
	if actorVal == nil {
		return "", false
	}

	actor, ok := actorVal.(string)
	return actor, ok
}
