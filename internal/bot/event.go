// Package bot turns decoded chat events into state transitions on the
// session, order and moderation stores, and into the replies and
// notifications those transitions produce.
package bot

import (
	"strings"

	"github.com/angelmondragon/orderbot/internal/notifications"
	"github.com/angelmondragon/orderbot/pkg/enums"
)

// Event is one decoded inbound chat event. Operator is derived from the
// configured operator id by the service; any value supplied by the caller is
// overwritten.
type Event struct {
	Kind        enums.EventKind `json:"kind"`
	UserID      int64           `json:"user_id"`
	Operator    bool            `json:"operator"`
	Username    string          `json:"username,omitempty"`
	DisplayName string          `json:"display_name,omitempty"`
	Command     string          `json:"command,omitempty"`
	Args        []string        `json:"args,omitempty"`
	Callback    string          `json:"callback,omitempty"`
	Text        string          `json:"text,omitempty"`
}

// commandName normalizes "/Start@SomeBot" to "start".
func (e Event) commandName() string {
	name := strings.TrimPrefix(strings.TrimSpace(e.Command), "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}

// Reply is what the caller sends back to the invoking chat, in order. Toast
// is the short acknowledgement shown for a button press.
type Reply struct {
	Messages []notifications.Message `json:"messages"`
	Toast    string                  `json:"toast,omitempty"`
}

func (r *Reply) add(msgs ...notifications.Message) {
	r.Messages = append(r.Messages, msgs...)
}

func reply(msgs ...notifications.Message) Reply {
	return Reply{Messages: msgs}
}

func plain(text string, buttons ...[]notifications.Button) notifications.Message {
	return notifications.Message{Text: text, Buttons: buttons}
}

func markdown(text string, buttons ...[]notifications.Button) notifications.Message {
	return notifications.Message{Text: text, Markdown: true, Buttons: buttons}
}

func withImage(msg notifications.Message, url string) notifications.Message {
	msg.ImageURL = url
	return msg
}
