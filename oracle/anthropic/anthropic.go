// Package anthropic provides an oracle.Oracle backed by the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ashhhwin/supportmesh/logging"
	"github.com/ashhhwin/supportmesh/oracle"
)

// Options configure the Anthropic oracle adapter.
type Options struct {
	Model     string
	APIKey    string
	MaxTokens int64
	Logger    logging.Logger
}

// Oracle wraps the Anthropic Messages API behind the generic oracle.Oracle
// interface.
type Oracle struct {
	client anthropic.Client
	opts   Options
}

var _ oracle.Oracle = (*Oracle)(nil)

// New creates an Anthropic oracle using the official client.
func New(optFns ...func(o *Options)) *Oracle {
	opts := Options{
		Model:     string(anthropic.ModelClaude3_5HaikuLatest),
		MaxTokens: 512,
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var reqOpts []option.RequestOption
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}
	return &Oracle{client: anthropic.NewClient(reqOpts...), opts: opts}
}

// WithModel sets the model identifier sent with every message.
func WithModel(model string) func(o *Options) {
	return func(o *Options) { o.Model = model }
}

// WithAPIKey sets the API credential.
func WithAPIKey(key string) func(o *Options) {
	return func(o *Options) { o.APIKey = key }
}

// WithMaxTokens caps the response length.
func WithMaxTokens(n int64) func(o *Options) {
	return func(o *Options) { o.MaxTokens = n }
}

// WithLogger sets the adapter logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// Classify implements oracle.Oracle.
func (o *Oracle) Classify(ctx context.Context, text string) (*oracle.Classification, error) {
	system := oracle.ClassificationInstruction() + "\nIMPORTANT: Output ONLY valid JSON."
	reply, err := o.complete(ctx, system, text, 0.1)
	if err != nil {
		return nil, err
	}
	return oracle.ParseClassification(reply)
}

// Phrase implements oracle.Oracle.
func (o *Oracle) Phrase(ctx context.Context, action string, details any, originalText string) (string, error) {
	user := fmt.Sprintf("The customer said: %q\nAction taken: %s\nDetails: %v", originalText, action, details)
	return o.complete(ctx, oracle.PhrasingInstruction(), user, 0.7)
}

func (o *Oracle) complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	resp, err := o.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(o.opts.Model),
		MaxTokens:   o.opts.MaxTokens,
		Temperature: anthropic.Float(temperature),
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.AsText().Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no text content returned")
	}
	return b.String(), nil
}
