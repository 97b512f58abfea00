package handler

import (
	"context"
	"net/http"
	"strconv"
)

// ActorHeader carries the id of the authenticated user performing a request.
// Authentication happens upstream; this service only attributes changes.
const ActorHeader = "X-Actor-ID"

type actorKey struct{}

func WithActor(ctx context.Context, actor int64) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFrom(ctx context.Context) (int64, bool) {
	actor, ok := ctx.Value(actorKey{}).(int64)
	return actor, ok
}

// RequireActor rejects requests without a valid actor header.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(ActorHeader)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "missing "+ActorHeader+" header")
			return
		}
		actor, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || actor <= 0 {
			writeError(w, http.StatusBadRequest, ActorHeader+" must be a positive integer")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

func actor(r *http.Request) int64 {
	a, _ := ActorFrom(r.Context())
	return a
}
