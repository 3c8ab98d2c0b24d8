package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/orderbot/pkg/errors"
)

const (
	defaultTelegramBaseURL = "https://api.telegram.org"
	// Successful replies echo the sent message, photo sizes included.
	responseBodyReadLimit int64 = 1 << 20
	errorTextLimit              = 1024
)

var errTokenRequired = errors.New("bot token is required")

// TelegramNotifier sends messages through the Bot API sendMessage and
// sendPhoto methods.
type TelegramNotifier struct {
	httpClient *http.Client
	baseURL    string
	token      string
	chunkLen   int
}

// Option configures optional notifier behavior.
type Option func(*TelegramNotifier)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(t *TelegramNotifier) {
		if client != nil {
			t.httpClient = client
		}
	}
}

// WithBaseURL overrides the Bot API base URL.
func WithBaseURL(baseURL string) Option {
	return func(t *TelegramNotifier) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			t.baseURL = trimmed
		}
	}
}

// WithChunkLen overrides the maximum characters per message.
func WithChunkLen(n int) Option {
	return func(t *TelegramNotifier) {
		if n > 0 {
			t.chunkLen = n
		}
	}
}

// NewTelegramNotifier builds a notifier for the given bot token.
func NewTelegramNotifier(token string, opts ...Option) (*TelegramNotifier, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, errTokenRequired
	}
	n := &TelegramNotifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultTelegramBaseURL,
		token:      trimmed,
		chunkLen:   DefaultChunkLen,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n, nil
}

type inlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type replyMarkup struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

type sendRequest struct {
	ChatID      int64        `json:"chat_id"`
	Text        string       `json:"text,omitempty"`
	Photo       string       `json:"photo,omitempty"`
	Caption     string       `json:"caption,omitempty"`
	ParseMode   string       `json:"parse_mode,omitempty"`
	ReplyMarkup *replyMarkup `json:"reply_markup,omitempty"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Notify sends msg. Long text is split into several messages and the
// buttons ride on the last one. When an image is set the first chunk is sent
// as a photo caption; if the photo is rejected the image link is appended to
// the text instead so the chat client can preview it.
func (t *TelegramNotifier) Notify(ctx context.Context, userID int64, msg Message) error {
	chunks := Chunk(msg.Text, t.chunkLen)
	if len(chunks) == 0 {
		chunks = []string{""}
	}
	markup := toMarkup(msg.Buttons)
	parseMode := ""
	if msg.Markdown {
		parseMode = "Markdown"
	}

	for i, chunk := range chunks {
		req := sendRequest{ChatID: userID, Text: chunk, ParseMode: parseMode}
		if i == len(chunks)-1 {
			req.ReplyMarkup = markup
		}
		if i == 0 && msg.ImageURL != "" {
			photo := req
			photo.Text, photo.Photo, photo.Caption = "", msg.ImageURL, chunk
			if err := t.call(ctx, "sendPhoto", photo); err == nil {
				continue
			}
			req.Text = strings.TrimSpace(chunk + "\n" + msg.ImageURL)
		}
		if req.Text == "" {
			continue
		}
		if err := t.call(ctx, "sendMessage", req); err != nil {
			return err
		}
	}
	return nil
}

func toMarkup(rows [][]Button) *replyMarkup {
	if len(rows) == 0 {
		return nil
	}
	out := make([][]inlineButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]inlineButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, inlineButton{Text: b.Text, CallbackData: b.Data})
		}
		out = append(out, buttons)
	}
	return &replyMarkup{InlineKeyboard: out}
}

func (t *TelegramNotifier) call(ctx context.Context, method string, payload sendRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal "+method+" request")
	}
	url := fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(t.baseURL, "/"), t.token, method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build "+method+" request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, scrub(err, t.token), "execute "+method+" request")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, scrub(err, t.token), "read "+method+" response")
	}
	if resp.StatusCode != http.StatusOK {
		text := raw
		if len(text) > errorTextLimit {
			text = text[:errorTextLimit]
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(text))), method+" request failed")
	}
	var apiResp apiResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+method+" response")
	}
	if !apiResp.OK {
		return pkgerrors.New(pkgerrors.CodeDependency, method+" rejected: "+apiResp.Description)
	}
	return nil
}

// scrub removes the bot token from transport errors, which embed the URL.
func scrub(err error, token string) error {
	msg := err.Error()
	if !strings.Contains(msg, token) {
		return err
	}
	return errors.New(strings.ReplaceAll(msg, token, "<redacted>"))
}
