package dialog

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/pathakanu/medMinder/internal/openai"
	"github.com/pathakanu/medMinder/internal/storage"
)

// Message is one inbound user message, already stripped of transport detail.
// ConversationID scopes the dialog state; SenderID owns the stored data. For
// WhatsApp both are the sanitized phone number.
type Message struct {
	ConversationID string
	SenderID       string
	DisplayName    string
	Text           string
}

// Reply is what the transport should send back. Options are button captions;
// transports without buttons render them as lines the user types back.
type Reply struct {
	Text    string
	Options []string
}

// Engine drives the conversation state machine. One engine serves every
// conversation; per-conversation progress lives in the session store.
type Engine struct {
	store      *storage.Store
	sessions   *SessionStore
	classifier *openai.Client
	logger     *log.Logger
}

func NewEngine(store *storage.Store, classifier *openai.Client, logger *log.Logger) *Engine {
	return &Engine{
		store:      store,
		sessions:   NewSessionStore(),
		classifier: classifier,
		logger:     logger,
	}
}

// input carries one parsed message through a transition.
type input struct {
	intent Intent
	text   string
	msg    Message
}

// HandleMessage advances the sender's conversation by one step and returns
// the reply to send. It never returns an error: failures surface to the user
// as a message and the draft in progress is discarded.
func (e *Engine) HandleMessage(ctx context.Context, msg Message) Reply {
	text := strings.TrimSpace(msg.Text)
	in := input{intent: MapIntent(text), text: text, msg: msg}

	draft, ok := e.sessions.Get(msg.ConversationID)
	if !ok {
		draft = Draft{ConversationID: msg.ConversationID, State: StateIdle}
	}

	// First contact: the user picks a timezone before anything else, so
	// reminder times mean what they expect.
	if draft.State == StateIdle && e.store.User(msg.SenderID) == nil {
		draft.State = StateSelectingTimezone
		e.sessions.Save(draft)
		e.logger.Printf("dialog: new user %s, asking for timezone", msg.SenderID)
		return welcomeReply(msg.DisplayName)
	}

	// "cancel" aborts whatever is in progress, from any state.
	if in.intent == IntentCancel {
		e.sessions.Clear(msg.ConversationID)
		if draft.State != StateIdle {
			return mainMenuReply("Cancelled.")
		}
		return mainMenuReply("")
	}

	// Loose phrasing at the menu goes through the intent classifier.
	if draft.State == StateIdle && in.intent == IntentText {
		in.intent = e.classify(ctx, text)
	}

	fn, ok := transitions[transitionKey{draft.State, in.intent}]
	if !ok {
		fn, ok = transitions[transitionKey{draft.State, IntentText}]
	}
	if !ok {
		e.sessions.Clear(msg.ConversationID)
		return mainMenuReply("")
	}

	reply := fn(e, ctx, &draft, in)
	if draft.State == StateIdle {
		e.sessions.Clear(msg.ConversationID)
	} else {
		draft.ConversationID = msg.ConversationID
		e.sessions.Save(draft)
	}
	return reply
}

// classify asks the language model what a free-text menu message means.
// Without an API key, or on any error, the text stays unclassified and the
// menu is shown again.
func (e *Engine) classify(ctx context.Context, text string) Intent {
	if e.classifier == nil {
		return IntentText
	}
	intent, err := e.classifier.ClassifyIntent(ctx, text)
	if err != nil {
		if !errors.Is(err, openai.ErrClientNotInitialised) {
			e.logger.Printf("dialog: intent classification failed: %v", err)
		}
		return IntentText
	}
	switch intent {
	case openai.IntentAddMedicine:
		return IntentAddMedicine
	case openai.IntentListMedicines:
		return IntentListMedicines
	case openai.IntentDeleteMedicine:
		return IntentDeleteMedicine
	case openai.IntentDeleteAll:
		return IntentDeleteAll
	case openai.IntentChangeTimezone:
		return IntentChangeTimezone
	case openai.IntentHelp:
		return IntentHelp
	default:
		return IntentText
	}
}
