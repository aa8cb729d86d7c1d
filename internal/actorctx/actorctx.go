package actorctx

import "context"

type ctxKey string

const keyUserID ctxKey = "actor_user_id"

// WithUserID records the authenticated caller on ctx so stores can stamp
// who made a change without depending on the HTTP layer.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, keyUserID, userID)
}

func UserIDFrom(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(keyUserID).(int64)

	return v, ok && v > 0
}
