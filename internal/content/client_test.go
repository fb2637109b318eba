package content

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/free-plinko-game/aff-web-gen/internal/retry"
)

func fastPolicy() retry.Policy {
	return retry.Policy{Mode: retry.BackoffFixed, Initial: time.Millisecond, Max: time.Millisecond, MaxRetries: 3}
}

func completionHandler(t *testing.T, handle func(req chatRequest, n int) (content, finishReason string, status int)) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		content, finish, status := handle(req, calls)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		resp := map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": finish,
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(url string) *Client {
	return NewClient(url, "test-key", "test-model", 100, 400, time.Second, fastPolicy(), nil)
}

func TestClientSuccess(t *testing.T) {
	srv, calls := completionHandler(t, func(req chatRequest, _ int) (string, string, int) {
		return `{"intro":"hi"}`, "stop", http.StatusOK
	})
	c := newTestClient(srv.URL)
	out, err := c.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, `{"intro":"hi"}`, out)
	require.Equal(t, 1, *calls)
}

func TestClientDoublesTokensOnTruncation(t *testing.T) {
	var seenTokens []int
	srv, _ := completionHandler(t, func(req chatRequest, n int) (string, string, int) {
		seenTokens = append(seenTokens, req.MaxTokens)
		if n < 3 {
			return `{"partial"`, "length", http.StatusOK
		}
		return `{"full":true}`, "stop", http.StatusOK
	})
	c := newTestClient(srv.URL)
	out, err := c.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, `{"full":true}`, out)
	require.Equal(t, []int{100, 200, 400}, seenTokens)
}

func TestClientTokenCapAtModelMax(t *testing.T) {
	var seenTokens []int
	srv, _ := completionHandler(t, func(req chatRequest, _ int) (string, string, int) {
		seenTokens = append(seenTokens, req.MaxTokens)
		return `x`, "length", http.StatusOK
	})
	c := NewClient(srv.URL, "test-key", "m", 300, 400, time.Second, fastPolicy(), nil)
	_, err := c.Generate(context.Background(), "prompt")
	require.Error(t, err)
	for _, tok := range seenTokens {
		require.LessOrEqual(t, tok, 400)
	}
	require.Equal(t, []int{300, 400, 400, 400}, seenTokens)
}

func TestClientRetriesInvalidJSON(t *testing.T) {
	srv, calls := completionHandler(t, func(_ chatRequest, n int) (string, string, int) {
		if n == 1 {
			return `not json at all`, "stop", http.StatusOK
		}
		return `{"ok":true}`, "stop", http.StatusOK
	})
	c := newTestClient(srv.URL)
	out, err := c.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, `{"ok":true}`, out)
	require.Equal(t, 2, *calls)
}

func TestClientRetriesServerErrors(t *testing.T) {
	srv, calls := completionHandler(t, func(_ chatRequest, n int) (string, string, int) {
		if n == 1 {
			return "", "", http.StatusBadGateway
		}
		return `{"ok":true}`, "stop", http.StatusOK
	})
	c := newTestClient(srv.URL)
	_, err := c.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, 2, *calls)
}

func TestClientExhaustsRetries(t *testing.T) {
	srv, calls := completionHandler(t, func(_ chatRequest, _ int) (string, string, int) {
		return "", "", http.StatusInternalServerError
	})
	c := newTestClient(srv.URL)
	_, err := c.Generate(context.Background(), "prompt")
	require.Error(t, err)
	require.Equal(t, 4, *calls) // first try + 3 retries
}
