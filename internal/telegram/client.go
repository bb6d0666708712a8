// Package telegram provides a client for sending boom alerts via Telegram Bot API.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"stockpulse/internal/models"
)

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// SendBoomAlert delivers a boom notification. Delivery is best-effort: the
// return value reports success and failures are only logged.
func (c *Client) SendBoomAlert(alert models.BoomAlert) bool {
	if err := c.sendMarkdownV2(formatBoomMessage(alert)); err != nil {
		log.Error().Err(err).Str("symbol", alert.Symbol).Msg("failed to send boom alert")
		return false
	}
	return true
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// formatBoomMessage formats a boom alert into a Telegram MarkdownV2 message.
func formatBoomMessage(alert models.BoomAlert) string {
	emoji := "📈"
	priceEmoji := "💰"
	if alert.PriceChangePct >= 5 {
		emoji = "🚀"
		priceEmoji = "🔥"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *BOOM ALERT* %s\n\n", emoji, emoji)
	if alert.CompanyName != "" && alert.CompanyName != alert.Symbol {
		fmt.Fprintf(&b, "%s *%s* \\(%s\\)\n\n", priceEmoji, escapeMarkdownV2(alert.Symbol), escapeMarkdownV2(alert.CompanyName))
	} else {
		fmt.Fprintf(&b, "%s *%s*\n\n", priceEmoji, escapeMarkdownV2(alert.Symbol))
	}
	fmt.Fprintf(&b, "📊 *Price:* %s\n", escapeMarkdownV2(fmt.Sprintf("$%.2f", alert.CurrentPrice)))
	fmt.Fprintf(&b, "📈 *Change:* %s\n", escapeMarkdownV2(fmt.Sprintf("+%.2f%%", alert.PriceChangePct)))
	fmt.Fprintf(&b, "📦 *Volume:* %s avg\n", escapeMarkdownV2(fmt.Sprintf("%.1fx", alert.VolumeRatio)))
	fmt.Fprintf(&b, "🎯 *Entry:* %s\n\n", escapeMarkdownV2(fmt.Sprintf("$%.2f", alert.TriggerPrice)))

	detectedAt := alert.DetectedAt
	if detectedAt.IsZero() {
		detectedAt = time.Now()
	}
	fmt.Fprintf(&b, "⏰ _%s_", escapeMarkdownV2(detectedAt.Format("2006-01-02 15:04:05")))
	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4) // pre-allocate with room for escapes
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
