package oracle

import "context"

// MockOracle is a function-backed Oracle for tests and offline runs. Nil
// functions yield a generic support_request classification and an empty
// phrase, so a zero value is safe to use.
type MockOracle struct {
	ClassifyFunc func(ctx context.Context, text string) (*Classification, error)
	PhraseFunc   func(ctx context.Context, action string, details any, originalText string) (string, error)
}

// Classify implements Oracle.
func (m *MockOracle) Classify(ctx context.Context, text string) (*Classification, error) {
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, text)
	}
	return &Classification{Intents: []string{"support_request"}, Entities: map[string]any{}}, nil
}

// Phrase implements Oracle.
func (m *MockOracle) Phrase(ctx context.Context, action string, details any, originalText string) (string, error) {
	if m.PhraseFunc != nil {
		return m.PhraseFunc(ctx, action, details, originalText)
	}
	return "", nil
}
