// Package notify sends confidence alerts to a Telegram chat. It formats the
// watch loop's alert candidates into a MarkdownV2 message and handles
// delivery with retry logic for reliability.
package notify

import (
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/stalkd/internal/models"
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

// Send delivers a batch of confidence alerts as a single message.
func (c *Client) Send(alerts []models.ConfidenceAlert) error {
	message := formatMessage(alerts)

	msg := tgbotapi.NewMessage(c.chatID, message)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatMessage formats alerts into a Telegram message.
func formatMessage(alerts []models.ConfidenceAlert) string {
	message := "\U0001F4C8 *Turnip Pattern Alert*\n\n"

	for i, alert := range alerts {
		weekStr := escapeMarkdownV2(alert.WeekStart.Format("2006-01-02"))
		patternStr := escapeMarkdownV2(alert.PatternName)
		confidenceStr := escapeMarkdownV2(fmt.Sprintf("%.1f%%", alert.CategoryTotalProbability*100))
		rangeStr := escapeMarkdownV2(fmt.Sprintf("%d-%d bells", alert.WeekGuaranteedMinimum, alert.WeekMax))

		message += fmt.Sprintf("%d\\. Island `%s`, week of %s\n", i+1, escapeMarkdownV2(alert.IslandID), weekStr)
		message += fmt.Sprintf("   Pattern: *%s* \\(%s confidence\\)\n", patternStr, confidenceStr)
		message += fmt.Sprintf("   Guaranteed sell range: %s\n\n", rangeStr)
	}

	return message
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	result := ""
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			result += "\\" + string(char)
		default:
			result += string(char)
		}
	}
	return result
}
