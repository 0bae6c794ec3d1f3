package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const brevoAPI = "https://api.brevo.com/v3"

// Sender delivers the welcome email and OTP text messages.
type Sender interface {
	SendWelcome(ctx context.Context, toEmail string) error
	SendOTP(ctx context.Context, phone, code string) error
}

type brevoEmailRequest struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

type brevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoSMSRequest struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Content   string `json:"content"`
	Type      string `json:"type"`
}

// BrevoClient sends transactional email and SMS through the Brevo API.
type BrevoClient struct {
	APIKey    string
	MailFrom  string
	SMSSender string
	BaseURL   string // defaults to https://api.brevo.com/v3
	Client    *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@petadopt.app"
}

func (c *BrevoClient) post(ctx context.Context, path string, body interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = brevoAPI
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo %s failed: status %d", path, resp.StatusCode)
	}
	return nil
}

// SendWelcome mails the account-created message. The greeting uses the address's local part.
func (c *BrevoClient) SendWelcome(ctx context.Context, toEmail string) error {
	name := toEmail
	if i := strings.Index(toEmail, "@"); i > 0 {
		name = toEmail[:i]
	}
	return c.post(ctx, "/smtp/email", brevoEmailRequest{
		Sender:      brevoContact{Email: c.from(), Name: "PetAdopt"},
		To:          []brevoContact{{Email: toEmail}},
		Subject:     "Welcome to PetAdopt!",
		HTMLContent: emailLayout(welcomeContent(name)),
	})
}

// SendOTP texts the one-time code.
func (c *BrevoClient) SendOTP(ctx context.Context, phone, code string) error {
	sender := c.SMSSender
	if sender == "" {
		sender = "PetAdopt"
	}
	return c.post(ctx, "/transactionalSMS/sms", brevoSMSRequest{
		Sender:    sender,
		Recipient: strings.TrimPrefix(phone, "+"),
		Content:   otpContent(code),
		Type:      "transactional",
	})
}

// LogSender is used when no Brevo key is configured. Codes are only logged outside production.
type LogSender struct {
	Production bool
}

func (l LogSender) SendWelcome(ctx context.Context, toEmail string) error {
	log.Info().Str("to", toEmail).Msg("notify: welcome email skipped (no BREVO_API_KEY)")
	return nil
}

func (l LogSender) SendOTP(ctx context.Context, phone, code string) error {
	ev := log.Debug().Str("phone", phone)
	if !l.Production {
		ev = ev.Str("code", code)
	}
	ev.Msg("notify: otp sms skipped (no BREVO_API_KEY)")
	return nil
}

// New picks the Brevo client when apiKey is set, the logging sender otherwise.
func New(apiKey, mailFrom, smsSender string, production bool) Sender {
	if apiKey == "" {
		return LogSender{Production: production}
	}
	return &BrevoClient{APIKey: apiKey, MailFrom: mailFrom, SMSSender: smsSender}
}
