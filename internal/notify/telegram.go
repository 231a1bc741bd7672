// Package notify pushes price-change alerts to outbound channels.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kkandukuri/pricetracker/internal/domain"
	"github.com/kkandukuri/pricetracker/internal/ports"
)

// Telegram sends price-change alerts to a chat via the bot API.
type Telegram struct {
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.Notifier = (*Telegram)(nil)

// NewTelegram registers bot token and chat identifier.
func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// PriceChanged posts a Markdown message describing the price movement.
func (t *Telegram) PriceChanged(ctx context.Context, p domain.Product, oldPrice, newPrice float64) error {
	if t.botToken == "" || t.chatID == "" || t.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	direction := "dropped"
	if newPrice > oldPrice {
		direction = "rose"
	}
	text := fmt.Sprintf("*%s*\nPrice %s: %.2f → %.2f %s\n%s",
		p.Name, direction, oldPrice, newPrice, p.Currency, p.URL)

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.botToken)
	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", text)
	form.Set("parse_mode", "Markdown")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}
