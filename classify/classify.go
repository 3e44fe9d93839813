// Package classify turns a raw customer utterance into a Classification. It
// asks the oracle first and falls back to keyword matching when the oracle is
// unreachable or returns garbage, so classification as a whole never fails.
package classify

import (
	"context"
	"strings"

	"github.com/ashhhwin/supportmesh/a2a"
	"github.com/ashhhwin/supportmesh/logging"
	"github.com/ashhhwin/supportmesh/oracle"
)

// Options configure a Classifier.
type Options struct {
	Logger logging.Logger
}

// Classifier resolves customer text to intents and entities.
type Classifier struct {
	oracle oracle.Oracle
	opts   Options
}

// New creates a Classifier backed by the given oracle. A nil oracle is
// allowed and routes every utterance through the keyword fallback.
func New(o oracle.Oracle, optFns ...func(o *Options)) *Classifier {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Classifier{oracle: o, opts: opts}
}

// WithLogger sets the classifier logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// Classify maps text to a Classification. Oracle failures are logged and
// absorbed: the caller always gets a usable result.
func (c *Classifier) Classify(ctx context.Context, text string) *oracle.Classification {
	if c.oracle != nil {
		result, err := c.oracle.Classify(ctx, text)
		if err == nil {
			return result
		}
		c.opts.Logger.Warn("oracle classification failed, using keyword fallback", "error", err)
	}
	return FallbackClassify(text)
}

// keywordRule matches an intent when all words in any of its clauses appear
// in the lowercased text.
type keywordRule struct {
	intent  string
	clauses [][]string
}

var fallbackRules = []keywordRule{
	{a2a.IntentRefundRequest, [][]string{{"refund"}, {"money", "back"}}},
	{a2a.IntentCancelSubscription, [][]string{{"cancel"}}},
	{a2a.IntentUpgradeRequest, [][]string{{"upgrade"}}},
	{a2a.IntentListCustomers, [][]string{{"active", "customers"}, {"list", "customers"}, {"all", "customers"}}},
	{a2a.IntentUpdateEmail, [][]string{{"email", "update"}, {"email", "change"}}},
	{a2a.IntentGetCustomerHistory, [][]string{{"history"}}},
	{a2a.IntentShowTicketStatus, [][]string{{"ticket"}}},
	{a2a.IntentEscalateIssue, [][]string{{"escalate"}, {"speak", "human"}, {"talk", "manager"}}},
}

// FallbackClassify is the deterministic keyword classifier used when the
// oracle is unavailable. Every rule is checked independently, so one
// utterance can yield several intents; only when nothing matches does the
// generic support_request apply.
func FallbackClassify(text string) *oracle.Classification {
	lowered := strings.ToLower(text)

	var intents []string
	for _, rule := range fallbackRules {
		if matchesAny(lowered, rule.clauses) {
			intents = append(intents, rule.intent)
		}
	}
	if len(intents) == 0 {
		intents = []string{a2a.IntentSupportRequest}
	}
	return &oracle.Classification{
		Intents:   intents,
		Entities:  map[string]any{},
		Reasoning: "keyword fallback",
	}
}

func matchesAny(lowered string, clauses [][]string) bool {
	for _, clause := range clauses {
		all := true
		for _, word := range clause {
			if !strings.Contains(lowered, word) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}
