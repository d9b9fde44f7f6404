package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// Client wraps the OpenAI SDK for free-text intent classification.
type Client struct {
	apiKey string
	client *openai.Client
	model  openai.ChatModel
}

// ErrClientNotInitialised is returned when attempting to call the API without a configured client.
var ErrClientNotInitialised = errors.New("openai client not initialised")

// Intent represents the high-level action inferred from a user message.
type Intent string

const (
	// IntentUnknown indicates the message intent could not be resolved.
	IntentUnknown Intent = "unknown"
	// IntentAddMedicine instructs the bot to capture a new medicine.
	IntentAddMedicine Intent = "add_medicine"
	// IntentListMedicines asks the bot to list saved medicines.
	IntentListMedicines Intent = "list_medicines"
	// IntentDeleteMedicine requests deletion of a medicine or reminder.
	IntentDeleteMedicine Intent = "delete_medicine"
	// IntentDeleteAll requests that all medicines be removed.
	IntentDeleteAll Intent = "delete_all_medicines"
	// IntentChangeTimezone asks to change the user's timezone.
	IntentChangeTimezone Intent = "change_timezone"
	// IntentHelp asks for usage guidance.
	IntentHelp Intent = "help"
)

// New returns an OpenAI client when apiKey is provided, otherwise an inert
// client whose calls report ErrClientNotInitialised.
func New(apiKey string) *Client {
	if apiKey == "" {
		return &Client{}
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		apiKey: apiKey,
		client: &client,
		model:  openai.ChatModelGPT4oMini,
	}
}

// ClassifyIntent uses the language model to infer the user's intent.
func (c *Client) ClassifyIntent(ctx context.Context, content string) (Intent, error) {
	if strings.TrimSpace(content) == "" {
		return IntentUnknown, fmt.Errorf("content cannot be empty")
	}
	if c.client == nil {
		return IntentUnknown, ErrClientNotInitialised
	}

	req := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String("Classify the user's request for a medication reminder bot. Reply with exactly one label: add_medicine, list_medicines, delete_medicine, delete_all_medicines, change_timezone, help, or unknown."),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(content),
					},
				},
			},
		},
		Temperature:         openai.Float(0.0),
		MaxCompletionTokens: openai.Int(8),
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return IntentUnknown, err
	}
	if len(resp.Choices) == 0 {
		return IntentUnknown, fmt.Errorf("no completion received")
	}

	label := strings.TrimSpace(resp.Choices[0].Message.Content)
	switch Intent(strings.ToLower(label)) {
	case IntentAddMedicine:
		return IntentAddMedicine, nil
	case IntentListMedicines:
		return IntentListMedicines, nil
	case IntentDeleteMedicine:
		return IntentDeleteMedicine, nil
	case IntentDeleteAll:
		return IntentDeleteAll, nil
	case IntentChangeTimezone:
		return IntentChangeTimezone, nil
	case IntentHelp:
		return IntentHelp, nil
	default:
		return IntentUnknown, nil
	}
}
