package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"signal_bot/internal/helper"
)

type Config struct {
	Token       string
	ChatID      int64
	Timeout     time.Duration
	APIEndpoint string // tgbot.APIEndpoint when empty
}

// Telegram sends alerts to a single chat in HTML parse mode. The whole text is
// escaped, so callers pass plain text.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
	log    *zap.Logger
}

func NewTelegram(cfg Config, log *zap.Logger) (*Telegram, error) {
	if cfg.Token == "" || cfg.ChatID == 0 {
		return nil, fmt.Errorf("telegram token and chat id are required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = tgbot.APIEndpoint
	}

	b, err := tgbot.NewBotAPIWithClient(cfg.Token, cfg.APIEndpoint, &http.Client{Timeout: cfg.Timeout})
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}

	return &Telegram{
		bot:    b,
		chatID: cfg.ChatID,
		log:    log.With(zap.String("module", "telegram")),
	}, nil
}

func (t *Telegram) Deliver(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbot.NewMessage(t.chatID, helper.EscapeHTML(text))
	msg.ParseMode = tgbot.ModeHTML
	msg.DisableWebPagePreview = true

	// the http client timeout bounds Send; ctx only cuts the wait short
	done := make(chan error, 1)
	go func() {
		_, err := t.bot.Send(msg)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
		t.log.Debug("message sent", zap.Int64("chat_id", t.chatID))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
