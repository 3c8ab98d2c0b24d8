// Package notifications delivers outbound chat messages. Delivery is best
// effort: the bot never waits on it and never sees its errors.
package notifications

import "context"

// Button is an inline keyboard button carrying a callback token.
type Button struct {
	Text string `json:"text"`
	Data string `json:"data"`
}

// Message is one outbound chat message.
type Message struct {
	Text     string     `json:"text"`
	Markdown bool       `json:"markdown,omitempty"`
	Buttons  [][]Button `json:"buttons,omitempty"`
	ImageURL string     `json:"image_url,omitempty"`
}

// Notifier sends a message to a chat user.
type Notifier interface {
	Notify(ctx context.Context, userID int64, msg Message) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, userID int64, msg Message) error

func (f NotifierFunc) Notify(ctx context.Context, userID int64, msg Message) error {
	return f(ctx, userID, msg)
}
