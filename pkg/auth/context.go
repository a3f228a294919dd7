package auth

import (
	"context"

	"clinic/pkg/model"
)

type actorKey struct{}

func WithActor(ctx context.Context, actor model.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the caller set by the auth middleware. Requests
// that passed no auth check are anonymous patients.
func ActorFromContext(ctx context.Context) model.Actor {
	if actor, ok := ctx.Value(actorKey{}).(model.Actor); ok {
		return actor
	}
	return model.PatientActor
}
