package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const telegramAPIBase = "https://api.telegram.org"

// PaymentNotifier is told about settled payments after they commit.
type PaymentNotifier interface {
	NotifyPaymentSuccess(ctx context.Context, payment PaymentSuccessNotification) error
}

// TelegramService sends admin notifications through the Telegram Bot API.
type TelegramService struct {
	botToken    string
	adminChatID string
	apiBase     string
	httpClient  *http.Client
}

// NewTelegramService creates a new TelegramService. With an empty token or
// chat id every send is a no-op.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		apiBase:     telegramAPIBase,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends an HTML message to the given chat.
func (s *TelegramService) SendMessage(ctx context.Context, chatID, text string) error {
	if s.botToken == "" {
		logrus.Debug("telegram: bot token not configured")
		return nil
	}

	body, err := json.Marshal(telegramMessage{ChatID: chatID, Text: text, ParseMode: "HTML"})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) error {
	if s.adminChatID == "" {
		return nil
	}
	return s.SendMessage(ctx, s.adminChatID, text)
}

// PaymentSuccessNotification describes one settled payment.
type PaymentSuccessNotification struct {
	TxnID       string
	Type        string
	WorkshopID  string
	Amount      int64
	Participant string
	TzID        string
	Email       string
}

// FormatRupees renders an amount with Indian digit grouping, e.g. ₹1,00,000.
func FormatRupees(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	if len(digits) <= 3 {
		return "₹" + sign + digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	groups = append([]string{head}, groups...)
	return "₹" + sign + strings.Join(groups, ",") + "," + tail
}

// NotifyPaymentSuccess tells the admin chat about a settled payment.
func (s *TelegramService) NotifyPaymentSuccess(ctx context.Context, payment PaymentSuccessNotification) error {
	if s.adminChatID == "" {
		return nil
	}

	purpose := "Event access fee"
	if payment.WorkshopID != "" {
		purpose = "Workshop " + payment.WorkshopID
	}

	message := fmt.Sprintf(`<b>✅ PAYMENT RECEIVED</b>
<b>Participant:</b> %s (%s)
<b>Email:</b> %s
<b>Purpose:</b> %s
<b>Amount:</b> %s
<b>Transaction:</b> %s
━━━━━━━━━━━━━━━━━━
<i>Technotronz</i>`,
		html.EscapeString(payment.Participant),
		html.EscapeString(payment.TzID),
		html.EscapeString(payment.Email),
		html.EscapeString(purpose),
		FormatRupees(payment.Amount),
		html.EscapeString(payment.TxnID),
	)

	return s.SendToAdmin(ctx, strings.TrimSpace(message))
}
