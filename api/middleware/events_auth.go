package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/angelmondragon/orderbot/api/responses"
	pkgerrors "github.com/angelmondragon/orderbot/pkg/errors"
	"github.com/angelmondragon/orderbot/pkg/logger"
)

// SecretTokenHeader carries the webhook secret configured with the bot API.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// EventsAuth rejects requests whose secret header does not match secret.
// An empty secret disables the check.
func EventsAuth(secret string, logg *logger.Logger) func(http.Handler) http.Handler {
	secret = strings.TrimSpace(secret)
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := strings.TrimSpace(r.Header.Get(SecretTokenHeader))
			if provided == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
