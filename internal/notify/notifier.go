package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Notifier отправляет текстовые уведомления
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// NopNotifier ничего не отправляет
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string) error {
	return nil
}

// messageSender часть *bot.Bot, которая нужна уведомлениям
type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramNotifier отправляет уведомления в один чат Telegram
type TelegramNotifier struct {
	sender messageSender
	chatID int64
}

// NewTelegramNotifier создаёт бота без запроса getMe при старте
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramNotifier{sender: b, chatID: chatID}, nil
}

// Notify отправляет text как обычный текст: спецсимволы HTML экранируются
func (n *TelegramNotifier) Notify(ctx context.Context, text string) error {
	_, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    n.chatID,
		Text:      html.EscapeString(text),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
