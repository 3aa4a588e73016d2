package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-index/internal/adapters/config"
	"github.com/selivandex/sentiment-index/pkg/logger"
	"github.com/selivandex/sentiment-index/pkg/models"
)

// Sender is the part of the bot API the notifier uses
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier posts run summaries to a Telegram chat
type Notifier struct {
	api             Sender
	chatID          int64
	templateManager *TemplateManager
}

// NewNotifier creates new Telegram notifier
func NewNotifier(cfg *config.TelegramConfig) (*Notifier, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	bot.Debug = false

	logger.Info("telegram notifier initialized",
		zap.String("bot_username", bot.Self.UserName),
	)

	return NewNotifierWithSender(bot, cfg.ChatID)
}

// NewNotifierWithSender creates a notifier on an existing sender
func NewNotifierWithSender(api Sender, chatID int64) (*Notifier, error) {
	tm, err := NewTemplateManager()
	if err != nil {
		return nil, err
	}
	return &Notifier{api: api, chatID: chatID, templateManager: tm}, nil
}

// SendRunSummary posts the latest market and sector values
func (n *Notifier) SendRunSummary(ctx context.Context, summary models.RunSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := n.templateManager.ExecuteTemplate(marketSummaryTemplate, summary)
	if err != nil {
		return err
	}

	return n.sendMessageMarkdown(msg)
}

func (n *Notifier) sendMessageMarkdown(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.api.Send(msg); err != nil {
		logger.Error("failed to send telegram message",
			zap.Int64("chat_id", n.chatID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send telegram message: %w", err)
	}

	return nil
}
