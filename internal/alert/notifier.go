package alert

import (
	"context"
	"fmt"
	"io"

	tg "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Notification struct {
	Title string
	Body  string
}

// Notifier raises a user-visible notification.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type telegramSender interface {
	Send(c tg.Chattable) (tg.Message, error)
}

// TelegramNotifier posts notifications to one chat.
type TelegramNotifier struct {
	bot    telegramSender
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tg.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "connect telegram bot")
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (n *TelegramNotifier) Notify(_ context.Context, note Notification) error {
	m := tg.NewMessage(n.chatID, note.Title+"\n"+note.Body)
	if _, err := n.bot.Send(m); err != nil {
		return errors.Wrap(err, "send telegram notification")
	}
	return nil
}

// WriterNotifier prints notifications as single lines.
type WriterNotifier struct {
	out io.Writer
}

func NewWriterNotifier(out io.Writer) *WriterNotifier {
	return &WriterNotifier{out: out}
}

func (n *WriterNotifier) Notify(_ context.Context, note Notification) error {
	_, err := fmt.Fprintf(n.out, "[%s] %s\n", note.Title, note.Body)
	return err
}

type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, note Notification) error {
	n.logger.Info(note.Title, zap.String("body", note.Body))
	return nil
}
