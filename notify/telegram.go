package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/use-agent/datewatch/config"
)

// Telegram sends messages through the Bot API sendMessage method.
type Telegram struct {
	client *resty.Client
	token  string
	chatID string
}

type telegramMessage struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// NewTelegram creates a Telegram gateway.
func NewTelegram(cfg config.TelegramConfig) *Telegram {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.APIURL, "/"))
	client.SetTimeout(10 * time.Second)

	return &Telegram{client: client, token: cfg.BotToken, chatID: cfg.ChatID}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Send(ctx context.Context, n Notification) error {
	res, err := t.client.R().
		SetContext(ctx).
		SetBody(telegramMessage{
			ChatID:    t.chatID,
			Text:      n.Text,
			ParseMode: "Markdown",
		}).
		Post("/bot" + t.token + "/sendMessage")
	if err != nil {
		// The request URL embeds the bot token.
		return errors.New(strings.ReplaceAll(err.Error(), t.token, "<token>"))
	}
	if res.StatusCode() != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", res.StatusCode(), res.String())
	}
	return nil
}
