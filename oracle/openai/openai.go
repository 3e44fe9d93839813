// Package openai provides an oracle.Oracle backed by an OpenAI-compatible
// Chat Completions API. Any endpoint speaking the protocol works: set
// WithBaseURL to point at a hosted router or a local inference server.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ashhhwin/supportmesh/logging"
	"github.com/ashhhwin/supportmesh/oracle"
)

// Options configure the OpenAI oracle adapter. Fields mirror a subset of
// Chat Completion parameters intentionally kept minimal; extend via
// functional options without breaking callers.
type Options struct {
	Model               string
	BaseURL             string
	APIKey              string
	MaxCompletionTokens int64
	RetryDelay          time.Duration
	Logger              logging.Logger
}

// Oracle wraps the OpenAI Chat Completions API behind the generic
// oracle.Oracle interface.
type Oracle struct {
	client openai.Client
	opts   Options
}

var _ oracle.Oracle = (*Oracle)(nil)

// New creates an OpenAI oracle using the official client.
func New(optFns ...func(o *Options)) *Oracle {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		MaxCompletionTokens: 512,
		RetryDelay:          3 * time.Second,
		Logger:              logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	// The SDK's own retry loop is disabled so the single 503 retry below is
	// the whole retry story.
	reqOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}
	return &Oracle{client: openai.NewClient(reqOpts...), opts: opts}
}

// WithModel sets the model identifier sent with every completion.
func WithModel(model string) func(o *Options) {
	return func(o *Options) { o.Model = model }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) func(o *Options) {
	return func(o *Options) { o.BaseURL = url }
}

// WithAPIKey sets the bearer credential.
func WithAPIKey(key string) func(o *Options) {
	return func(o *Options) { o.APIKey = key }
}

// WithMaxCompletionTokens caps the completion length.
func WithMaxCompletionTokens(n int64) func(o *Options) {
	return func(o *Options) { o.MaxCompletionTokens = n }
}

// WithRetryDelay sets the pause before the single model-loading retry.
func WithRetryDelay(d time.Duration) func(o *Options) {
	return func(o *Options) { o.RetryDelay = d }
}

// WithLogger sets the adapter logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// Classify implements oracle.Oracle. A low temperature keeps the intent
// labels stable across retries of the same utterance.
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

// complete runs one chat completion. Shared inference endpoints answer 503
// while a model is still loading, so that status gets a single retry after
// RetryDelay; every other failure is returned as-is.
func (o *Oracle) complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model:               o.opts.Model,
		Temperature:         openai.Float(temperature),
		MaxCompletionTokens: openai.Int(o.opts.MaxCompletionTokens),
	}

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil && isModelLoading(err) {
		o.opts.Logger.Warn("model loading, retrying once", "delay", o.opts.RetryDelay)
		select {
		case <-time.After(o.opts.RetryDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		resp, err = o.client.Chat.Completions.New(ctx, params)
	}
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}

	o.opts.Logger.Debug("oracle call completed", "model", o.opts.Model, "duration", time.Since(start))

	return resp.Choices[0].Message.Content, nil
}

// isModelLoading reports whether the API signalled that the model is not
// ready yet (HTTP 503).
func isModelLoading(err error) bool {
	var apierr *openai.Error
	return errors.As(err, &apierr) && apierr.StatusCode == 503
}
