package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/angelmondragon/orderbot/api/responses"
	pkgerrors "github.com/angelmondragon/orderbot/pkg/errors"
	"github.com/angelmondragon/orderbot/pkg/logger"
)

type contextKey string

const ctxUserID contextKey = "user_id"

const maxEventBody = 1 << 20

// UserIDFromContext returns the chat user id seeded by EventSubject, or 0.
func UserIDFromContext(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if v, ok := ctx.Value(ctxUserID).(int64); ok {
		return v
	}
	return 0
}

// WithUserID injects the chat user id into the context.
func WithUserID(ctx context.Context, userID int64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// EventSubject buffers the request body, seeds the context with the event's
// user_id and restores the body for downstream handlers. Malformed JSON is
// left for the controller to reject.
func EventSubject(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody+1))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
				return
			}
			if len(body) > maxEventBody {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "request body too large"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			ctx := r.Context()
			if userID := extractUserID(body); userID > 0 {
				ctx = WithUserID(ctx, userID)
				if logg != nil {
					ctx = logg.WithUserID(ctx, userID)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractUserID(payload []byte) int64 {
	var body struct {
		UserID int64 `json:"user_id"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return 0
	}
	return body.UserID
}
