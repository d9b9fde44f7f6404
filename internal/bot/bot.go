package bot

import (
	"encoding/xml"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/pathakanu/medMinder/internal/auth"
	"github.com/pathakanu/medMinder/internal/dialog"
)

// Bot adapts Twilio's WhatsApp webhook to the conversation engine.
type Bot struct {
	engine *dialog.Engine
	allow  *auth.List
	logger *log.Logger
}

// New creates the webhook adapter.
func New(engine *dialog.Engine, allow *auth.List, logger *log.Logger) *Bot {
	return &Bot{
		engine: engine,
		allow:  allow,
		logger: logger,
	}
}

// Handler returns the HTTP handler for incoming Twilio messages.
func (b *Bot) Handler() http.HandlerFunc {
	return b.handleIncomingMessage
}

// handleIncomingMessage processes Twilio webhook POST requests. Every reply,
// including refusals, goes back as TwiML in the webhook response.
func (b *Bot) handleIncomingMessage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		b.logger.Printf("webhook: parse error: %v", err)
		b.writeTwilioResponse(w, "Sorry, I couldn't understand that request.")
		return
	}

	form := DecodeTwilioForm(r.PostForm)
	from := form["From"]
	body := strings.TrimSpace(form["Body"])
	profile := form["ProfileName"]
	if from == "" || body == "" {
		b.writeTwilioResponse(w, "I need a message to work with. Please try again.")
		return
	}

	senderID := sanitizeWhatsAppNumber(from)
	if !b.allow.Permit(senderID, profile) {
		b.logger.Printf("auth: denied %s (profile %q)", senderID, profile)
		b.writeTwilioResponse(w, "Sorry, this bot is private. Ask the administrator for access.")
		return
	}

	reply := b.engine.HandleMessage(r.Context(), dialog.Message{
		ConversationID: senderID,
		SenderID:       senderID,
		DisplayName:    profile,
		Text:           body,
	})
	b.writeTwilioResponse(w, renderReply(reply))
}

// renderReply flattens a reply for a plain-text channel: the options become
// lines the user can type back.
func renderReply(reply dialog.Reply) string {
	if len(reply.Options) == 0 {
		return reply.Text
	}
	var sb strings.Builder
	sb.WriteString(reply.Text)
	sb.WriteString("\n")
	for _, opt := range reply.Options {
		sb.WriteString("\n- ")
		sb.WriteString(opt)
	}
	return sb.String()
}

func (b *Bot) writeTwilioResponse(w http.ResponseWriter, message string) {
	twiml := struct {
		XMLName xml.Name `xml:"Response"`
		Message string   `xml:"Message"`
	}{
		Message: message,
	}

	w.Header().Set("Content-Type", "application/xml")
	if err := xml.NewEncoder(w).Encode(twiml); err != nil {
		b.logger.Printf("twilio response encode: %v", err)
	}
}

func sanitizeWhatsAppNumber(from string) string {
	// Twilio prepends whatsapp: to the number.
	return strings.TrimPrefix(from, "whatsapp:")
}

// DecodeTwilioForm extracts the POST form data into a map for convenience.
func DecodeTwilioForm(values url.Values) map[string]string {
	result := make(map[string]string, len(values))
	for key, value := range values {
		if len(value) > 0 {
			result[key] = value[0]
		}
	}
	return result
}
