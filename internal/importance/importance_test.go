package importance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/memory-stream/internal/model"
)

// chatServer answers every chat completion with message.
func chatServer(t *testing.T, status int, message map[string]any) (*httptest.Server, *[]map[string]any) {
	t.Helper()
	var requests []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		requests = append(requests, req)

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "upstream unavailable", "type": "server_error"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1686009600,
			"model":   "gpt-3.5-turbo",
			"choices": []map[string]any{
				{"index": 0, "message": message, "finish_reason": "tool_calls"},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func toolCallMessage(name, args string) map[string]any {
	return map[string]any{
		"role":    "assistant",
		"content": "",
		"tool_calls": []map[string]any{
			{"id": "call_1", "type": "function", "function": map[string]any{"name": name, "arguments": args}},
		},
	}
}

func TestStaticRater(t *testing.T) {
	r := StaticRater(7)
	got, err := r.Rate(context.Background(), "Likes tea.")
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestOpenAIRater_Rate(t *testing.T) {
	srv, requests := chatServer(t, http.StatusOK, toolCallMessage(RatingFunctionName, `{"rating": 8}`))

	r := NewOpenAIRater(srv.URL+"/v1", "sk-test", "")
	got, err := r.Rate(context.Background(), "Got accepted into college.")
	require.NoError(t, err)
	assert.Equal(t, 8, got)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, "gpt-3.5-turbo", req["model"])

	msgs := req["messages"].([]any)
	require.Len(t, msgs, 2)
	user := msgs[1].(map[string]any)
	assert.Contains(t, user["content"], "Memory: Got accepted into college.")

	choice := req["tool_choice"].(map[string]any)
	assert.Equal(t, RatingFunctionName, choice["function"].(map[string]any)["name"])
}

func TestOpenAIRater_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message map[string]any
	}{
		{"no tool call", http.StatusOK, map[string]any{"role": "assistant", "content": "I'd say 7."}},
		{"other tool", http.StatusOK, toolCallMessage("something_else", `{"rating": 3}`)},
		{"bad arguments", http.StatusOK, toolCallMessage(RatingFunctionName, `{"rating": "high"}`)},
		{"missing rating", http.StatusOK, toolCallMessage(RatingFunctionName, `{}`)},
		{"server error", http.StatusInternalServerError, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := chatServer(t, tt.status, tt.message)
			r := NewOpenAIRater(srv.URL+"/v1", "sk-test", "gpt-4")
			_, err := r.Rate(context.Background(), "Brushed teeth.")
			require.ErrorIs(t, err, model.ErrExternalRating)
		})
	}
}

func TestNew(t *testing.T) {
	r, err := New(Settings{})
	require.NoError(t, err)
	assert.Equal(t, StaticRater(5), r)

	r, err = New(Settings{Provider: "static", Static: 9})
	require.NoError(t, err)
	assert.Equal(t, StaticRater(9), r)

	r, err = New(Settings{Provider: "openai", APIKey: "sk-test"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIRater{}, r)

	_, err = New(Settings{Provider: "coin-flip"})
	assert.Error(t, err)
}
