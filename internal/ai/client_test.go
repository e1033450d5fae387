package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientCompleteTrimsContent(t *testing.T) {
	srv := completionServer(t, http.StatusOK,
		`{"choices":[{"message":{"role":"assistant","content":"  你好，未来的我。  "}}]}`)

	c := NewClient(srv.URL, "test-key", "gpt-4o-mini")
	got, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, CompletionOptions{Temperature: 0.7, MaxTokens: 100})

	require.NoError(t, err)
	assert.Equal(t, "你好，未来的我。", got)
}

func TestClientCompleteNoChoices(t *testing.T) {
	srv := completionServer(t, http.StatusOK, `{"choices":[]}`)

	c := NewClient(srv.URL, "test-key", "gpt-4o-mini")
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, CompletionOptions{})

	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestClientCompleteBlankContent(t *testing.T) {
	srv := completionServer(t, http.StatusOK,
		`{"choices":[{"message":{"role":"assistant","content":"   "}}]}`)

	c := NewClient(srv.URL, "test-key", "gpt-4o-mini")
	_, err := c.Complete(context.Background(), nil, CompletionOptions{})

	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestClientCompleteAPIError(t *testing.T) {
	srv := completionServer(t, http.StatusInternalServerError,
		`{"error":{"message":"upstream exploded","type":"server_error"}}`)

	c := NewClient(srv.URL, "test-key", "gpt-4o-mini")
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, CompletionOptions{})

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusInternalServerError, terr.StatusCode)
	assert.Equal(t, "upstream exploded", terr.Body)
}

func TestClientCompleteNonJSONError(t *testing.T) {
	srv := completionServer(t, http.StatusBadGateway, `bad gateway`)

	c := NewClient(srv.URL, "test-key", "gpt-4o-mini")
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, CompletionOptions{})

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusBadGateway, terr.StatusCode)
}
