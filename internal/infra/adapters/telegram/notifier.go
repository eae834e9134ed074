package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"interview-analysis/internal/domain/model"
	"interview-analysis/internal/domain/ports/adapter"
	"interview-analysis/internal/infra/presenter"
)

var _ adapter.OutcomeNotifier = (*Notifier)(nil)

// Telegram rejects messages over 4096 characters.
const maxDocumentLen = 3500

// Notifier posts a summary of each finished job to one Telegram chat.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *zerolog.Logger
}

// NewNotifier authenticates against the Bot API. endpoint may be empty for
// the public API; otherwise it is a tgbotapi endpoint format such as
// "http://host/bot%s/%s".
func NewNotifier(token string, chatID int64, endpoint string, logger *zerolog.Logger) (*Notifier, error) {
	if token == "" {
		return nil, errors.New("telegram token is empty")
	}
	if chatID == 0 {
		return nil, errors.New("telegram chat id is required")
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	l := logger.With().Str("component", "TelegramNotifier").Str("bot", bot.Self.UserName).Logger()
	return &Notifier{bot: bot, chatID: chatID, log: &l}, nil
}

func (n *Notifier) NotifyOutcome(ctx context.Context, view model.JobView, outcome model.Outcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, FormatOutcome(view, outcome))
	msg.DisableWebPagePreview = true
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	n.log.Debug().Str("job_id", view.JobID).Msg("outcome sent")
	return nil
}

// FormatOutcome is the plain-text message body for a finished job.
func FormatOutcome(view model.JobView, outcome model.Outcome) string {
	var b strings.Builder
	if outcome.Succeeded() {
		b.WriteString("Interview analysis completed")
	} else {
		b.WriteString("Interview analysis failed")
	}
	if view.JobID != "" {
		fmt.Fprintf(&b, "\nJob: %s", view.JobID)
	}
	fmt.Fprintf(&b, "\nElapsed: %s", view.Elapsed)
	if !outcome.Succeeded() && outcome.Message != "" {
		fmt.Fprintf(&b, "\nError: %s", outcome.Message)
	}

	doc, err := presenter.Render(outcome, false)
	if err != nil {
		return b.String()
	}
	s := string(doc)
	if len(s) > maxDocumentLen {
		s = truncate(s, maxDocumentLen) + "\n…"
	}
	b.WriteString("\n\n")
	b.WriteString(s)
	return b.String()
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
