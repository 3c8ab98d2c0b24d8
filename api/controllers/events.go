package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/orderbot/api/responses"
	"github.com/angelmondragon/orderbot/api/validators"
	"github.com/angelmondragon/orderbot/internal/bot"
	"github.com/angelmondragon/orderbot/pkg/enums"
	"github.com/angelmondragon/orderbot/pkg/logger"
)

const (
	maxTextRunes  = 4096
	maxNameRunes  = 256
	maxArgRunes   = 256
	maxCallbackID = 64
)

// EventHandler is the bot surface the events endpoint drives.
type EventHandler interface {
	Handle(ctx context.Context, ev bot.Event) (bot.Reply, error)
}

type eventRequest struct {
	Kind        string   `json:"kind" validate:"required,oneof=command button text"`
	UserID      int64    `json:"user_id" validate:"gt=0"`
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	Command     string   `json:"command" validate:"required_if=Kind command"`
	Args        []string `json:"args" validate:"max=16"`
	Callback    string   `json:"callback" validate:"required_if=Kind button,max=64"`
	Text        string   `json:"text"`
}

func (r eventRequest) toEvent() bot.Event {
	args := make([]string, 0, len(r.Args))
	for _, arg := range r.Args {
		if arg != "" {
			args = append(args, validators.CapRunes(arg, maxArgRunes))
		}
	}
	return bot.Event{
		Kind:        enums.EventKind(r.Kind),
		UserID:      r.UserID,
		Username:    validators.SanitizeString(r.Username, maxNameRunes),
		DisplayName: validators.SanitizeString(r.DisplayName, maxNameRunes),
		Command:     validators.SanitizeString(r.Command, maxNameRunes),
		Args:        args,
		Callback:    validators.SanitizeString(r.Callback, maxCallbackID),
		Text:        validators.SanitizeString(r.Text, maxTextRunes),
	}
}

// Events decodes one chat event, dispatches it and returns the reply the
// caller should post back to the chat.
func Events(handler EventHandler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req eventRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reply, err := handler.Handle(r.Context(), req.toEvent())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reply)
	}
}
