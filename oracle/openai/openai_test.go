package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionReply(content string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "test-model",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	}
}

func newTestOracle(url string) *Oracle {
	return New(
		WithBaseURL(url+"/"),
		WithAPIKey("test-key"),
		WithModel("test-model"),
		WithRetryDelay(10*time.Millisecond),
	)
}

func TestClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionReply(`{"intents": ["refund_request"], "entities": {"customer_id": 2}, "reasoning": "wants money back"}`))
	}))
	defer srv.Close()

	c, err := newTestOracle(srv.URL).Classify(context.Background(), "I want my money back for customer 2")
	require.NoError(t, err)
	assert.Equal(t, []string{"refund_request"}, c.Intents)
	assert.Equal(t, map[string]any{"customer_id": float64(2)}, c.Entities)
}

func TestClassifyRetriesOnceWhileModelLoads(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, `{"error": {"message": "model is loading"}}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionReply(`{"intents": ["support_request"], "entities": {}}`))
	}))
	defer srv.Close()

	c, err := newTestOracle(srv.URL).Classify(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []string{"support_request"}, c.Intents)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClassifyGivesUpAfterSecond503(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error": {"message": "model is loading"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestOracle(srv.URL).Classify(context.Background(), "hello")
	assert.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPhrase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionReply("Your email has been updated."))
	}))
	defer srv.Close()

	text, err := newTestOracle(srv.URL).Phrase(context.Background(), "update_email", map[string]any{"email": "a@b.com"}, "change my email")
	require.NoError(t, err)
	assert.Equal(t, "Your email has been updated.", text)
}
