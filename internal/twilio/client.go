package twilio

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	twilio "github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// ErrNotConfigured is returned when messaging credentials are absent.
var ErrNotConfigured = errors.New("twilio client not configured")

// Client wraps Twilio WhatsApp messaging for outbound reminders.
type Client struct {
	client       *twilio.RestClient
	fromWhatsApp string
	logger       *log.Logger
}

// New creates a Twilio client bound to the configured WhatsApp sender number.
// The HTTP timeout bounds every API call so a slow Twilio endpoint cannot
// stall a delivery pass.
func New(accountSID, authToken, fromWhatsApp string, timeout time.Duration, logger *log.Logger) *Client {
	if accountSID == "" || authToken == "" {
		return &Client{fromWhatsApp: fromWhatsApp, logger: logger}
	}
	base := &client.Client{
		Credentials: client.NewCredentials(accountSID, authToken),
		HTTPClient:  &http.Client{Timeout: timeout},
	}
	base.SetAccountSid(accountSID)
	return &Client{
		client:       twilio.NewRestClientWithParams(twilio.ClientParams{Client: base}),
		fromWhatsApp: fromWhatsApp,
		logger:       logger,
	}
}

// Send delivers one WhatsApp message. The context bounds the wait on top of
// the client's own HTTP timeout.
func (c *Client) Send(ctx context.Context, recipient, text string) error {
	if c.client == nil {
		return ErrNotConfigured
	}

	sender := normalizeWhatsAppAddress(c.fromWhatsApp)
	if sender == "" {
		return fmt.Errorf("twilio sender WhatsApp number is not configured")
	}

	to := normalizeWhatsAppAddress(recipient)
	if to == "" {
		return fmt.Errorf("recipient number missing or invalid")
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(sender)
	params.SetBody(text)

	done := make(chan error, 1)
	go func() {
		_, err := c.client.Api.CreateMessage(params)
		done <- err
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		c.logger.Printf("twilio: %s send failure to %s: %v", classify(err), to, err)
		return fmt.Errorf("twilio send message error: %w", err)
	}
	return nil
}

// classify labels a send failure for the logs. Transient failures (timeouts,
// network errors, Twilio 5xx) may succeed on a later pass; permanent ones
// (bad number, rejected content) will not.
func classify(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "transient"
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return "transient"
	}
	var restErr *client.TwilioRestError
	if errors.As(err, &restErr) {
		if restErr.Status >= 500 || restErr.Status == http.StatusTooManyRequests {
			return "transient"
		}
	}
	return "permanent"
}

func normalizeWhatsAppAddress(number string) string {
	trimmed := strings.TrimSpace(number)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "whatsapp:") {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "+") {
		return "whatsapp:" + trimmed
	}
	return "whatsapp:+" + trimmed
}
