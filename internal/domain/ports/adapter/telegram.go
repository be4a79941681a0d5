package adapter

import "context"

// TelegramBotAdapter is the outbound reply boundary.
type TelegramBotAdapter interface {
	// SendMessage sends an HTML formatted text to chatID.
	SendMessage(ctx context.Context, chatID int64, text string) error
	AnswerCallback(ctx context.Context, callbackID string) error
}
