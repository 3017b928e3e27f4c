package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medimate-go/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), config.LLMConfig{
		APIKey:         "test-key",
		BaseURL:        srv.URL + "/",
		APIVersion:     "v1beta",
		Model:          "gemini-test",
		TimeoutSeconds: 5,
	})
	require.NoError(t, err)
	return c
}

func TestGenerate(t *testing.T) {
	t.Run("returns first candidate text", func(t *testing.T) {
		var calls int32
		var gotPrompt string
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			assert.True(t, strings.HasSuffix(r.URL.Path, "gemini-test:generateContent"), r.URL.Path)

			body, _ := io.ReadAll(r.Body)
			var req struct {
				Contents []struct {
					Parts []struct {
						Text string `json:"text"`
					} `json:"parts"`
				} `json:"contents"`
			}
			require.NoError(t, json.Unmarshal(body, &req))
			gotPrompt = req.Contents[0].Parts[0].Text

			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Try resting."}]}}]}`)
		})

		text, err := c.Generate(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, "Try resting.", text)
		assert.Equal(t, "hello", gotPrompt)
		assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	})

	t.Run("missing text is empty response", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"candidates":[]}`)
		})
		_, err := c.Generate(context.Background(), "hello")
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("non-2xx status fails", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`)
		})
		_, err := c.Generate(context.Background(), "hello")
		assert.Error(t, err)
	})
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), config.LLMConfig{Model: "m"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = Unavailable{}.Generate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
