package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medimate-go/internal/config"
	"medimate-go/internal/model"
	"medimate-go/internal/repository"
	"medimate-go/internal/triage"
	"medimate-go/pkg/llm"
)

// fakeLLM 记录每次调用的 prompt，按 respond 返回结果。
type fakeLLM struct {
	mu      sync.Mutex
	prompts []string
	respond func(prompt string) (string, error)
}

func (f *fakeLLM) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.respond(prompt)
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type chatFixture struct {
	svc     ChatService
	convs   ConversationService
	metrics *triage.Metrics
}

func newChatFixture(t *testing.T, client llm.Client) chatFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := repository.NewConversationRepository(rdb, time.Hour)
	convs := NewConversationService(repo)
	metrics := triage.NewMetrics(prometheus.NewRegistry())
	gate := triage.NewGate(triage.NewKeywordSet(nil))
	return chatFixture{
		svc:     NewChatService(gate, client, convs, repo, metrics),
		convs:   convs,
		metrics: metrics,
	}
}

func (f chatFixture) history(t *testing.T, userID uint) []model.ChatMessage {
	t.Helper()
	h, err := f.convs.GetConversationHistory(context.Background(), userID)
	require.NoError(t, err)
	return h
}

func kinds(msgs []model.ChatMessage) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Role + ":" + m.Kind
	}
	return out
}

func TestSubmitEmergencyKeyword(t *testing.T) {
	for _, text := range []string{"I have chest pain", "I have CHEST PAIN", "i CaN'T bReAtHe"} {
		t.Run(text, func(t *testing.T) {
			client := &fakeLLM{respond: func(string) (string, error) { return "unused", nil }}
			f := newChatFixture(t, client)

			res, err := f.svc.Submit(context.Background(), 1, text)
			require.NoError(t, err)
			assert.True(t, res.Emergency)
			assert.Nil(t, res.Notification)
			assert.Zero(t, client.calls(), "emergency path must not call the assistant")

			h := f.history(t, 1)
			assert.Equal(t, []string{"assistant:greeting", "user:chat", "assistant:emergency"}, kinds(h))
			assert.Equal(t, text, h[1].Content)
			assert.Equal(t, triage.EmergencyMessage, h[2].Content)
			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SubmitsTotal.WithLabelValues("emergency")))
		})
	}
}

func TestSubmitForwardsToAssistant(t *testing.T) {
	client := &fakeLLM{respond: func(string) (string, error) { return "Try resting.", nil }}
	f := newChatFixture(t, client)

	res, err := f.svc.Submit(context.Background(), 1, "  I have a mild headache  ")
	require.NoError(t, err)
	assert.False(t, res.Emergency)
	assert.False(t, res.Stale)
	assert.Nil(t, res.Notification)
	assert.Equal(t, int64(1), res.Seq)
	require.Len(t, res.Messages, 2)

	require.Equal(t, 1, client.calls())
	assert.Equal(t, triage.BuildPrompt("I have a mild headache"), client.prompts[0])

	h := f.history(t, 1)
	assert.Equal(t, []string{"assistant:greeting", "user:chat", "assistant:chat"}, kinds(h))
	assert.Equal(t, "I have a mild headache", h[1].Content)
	assert.Equal(t, "Try resting.", h[2].Content)
	assert.Equal(t, int64(1), h[2].Seq)
}

func TestSubmitAssistantFailure(t *testing.T) {
	client := &fakeLLM{respond: func(string) (string, error) { return "", errors.New("dial tcp: connection refused") }}
	f := newChatFixture(t, client)

	res, err := f.svc.Submit(context.Background(), 1, "I have a mild headache")
	require.NoError(t, err, "assistant failures never reach the caller")
	require.NotNil(t, res.Notification)
	assert.Equal(t, "Connection Error", res.Notification.Title)
	assert.Equal(t, "Could not connect to AI service. Please try again later.", res.Notification.Description)
	assert.Equal(t, 1, client.calls(), "no retry")

	h := f.history(t, 1)
	assert.Equal(t, []string{"assistant:greeting", "user:chat", "assistant:fallback"}, kinds(h))
	assert.Equal(t, triage.FallbackMessage, h[2].Content)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SubmitsTotal.WithLabelValues("fallback")))
	assert.Zero(t, testutil.ToFloat64(f.metrics.SubmitsTotal.WithLabelValues("emergency")))
}

func TestSubmitEmptyMessage(t *testing.T) {
	client := &fakeLLM{respond: func(string) (string, error) { return "unused", nil }}
	f := newChatFixture(t, client)

	for _, text := range []string{"", "   ", "\n\t"} {
		res, err := f.svc.Submit(context.Background(), 1, text)
		assert.ErrorIs(t, err, ErrEmptyMessage)
		assert.Nil(t, res)
	}
	assert.Zero(t, client.calls())
	assert.Equal(t, []string{"assistant:greeting"}, kinds(f.history(t, 1)))
}

func TestSubmitDiscardsStaleReply(t *testing.T) {
	release := make(chan struct{})
	client := &fakeLLM{respond: func(prompt string) (string, error) {
		if prompt == triage.BuildPrompt("first question") {
			<-release
			return "answer to first", nil
		}
		return "answer to second", nil
	}}
	f := newChatFixture(t, client)
	ctx := context.Background()

	var first *SubmitResult
	done := make(chan struct{})
	go func() {
		defer close(done)
		var err error
		first, err = f.svc.Submit(ctx, 1, "first question")
		assert.NoError(t, err)
	}()

	// 等第一个请求进入外部调用后再提交第二个
	require.Eventually(t, func() bool { return client.calls() == 1 }, time.Second, 5*time.Millisecond)
	second, err := f.svc.Submit(ctx, 1, "second question")
	require.NoError(t, err)
	assert.False(t, second.Stale)

	close(release)
	<-done
	assert.True(t, first.Stale)
	assert.Len(t, first.Messages, 1)
	assert.Less(t, first.Seq, second.Seq)

	h := f.history(t, 1)
	var contents []string
	for _, m := range h {
		contents = append(contents, m.Content)
	}
	assert.NotContains(t, contents, "answer to first")
	assert.Equal(t, "answer to second", h[len(h)-1].Content)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SubmitsTotal.WithLabelValues("stale")))
}

// 下面两个用例通过真实的 Gemini 客户端走 HTTP，覆盖完整的请求与解析路径。
func newGeminiClient(t *testing.T, url string) llm.Client {
	t.Helper()
	c, err := llm.NewClient(context.Background(), config.LLMConfig{
		APIKey: "k", BaseURL: url + "/", APIVersion: "v1beta", Model: "gemini-test", TimeoutSeconds: 2,
	})
	require.NoError(t, err)
	return c
}

func TestSubmitScenarioTryResting(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "User query: I have a mild headache")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"Try resting."}]}}]}`)
	}))
	defer srv.Close()

	f := newChatFixture(t, newGeminiClient(t, srv.URL))
	res, err := f.svc.Submit(context.Background(), 1, "I have a mild headache")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, "Try resting.", res.Messages[1].Content)
}

func TestSubmitScenarioNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close() // 连接被拒绝

	f := newChatFixture(t, newGeminiClient(t, url))
	res, err := f.svc.Submit(context.Background(), 1, "I have a mild headache")
	require.NoError(t, err)
	require.NotNil(t, res.Notification)

	h := f.history(t, 1)
	assert.Equal(t, []string{"assistant:greeting", "user:chat", "assistant:fallback"}, kinds(h))
}

func TestResetConversation(t *testing.T) {
	client := &fakeLLM{respond: func(string) (string, error) { return "ok", nil }}
	f := newChatFixture(t, client)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, 1, "hello")
	require.NoError(t, err)
	require.Len(t, f.history(t, 1), 3)

	fresh, err := f.convs.ResetConversation(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"assistant:greeting"}, kinds(fresh))
	assert.Equal(t, []string{"assistant:greeting"}, kinds(f.history(t, 1)))

	res, err := f.svc.Submit(ctx, 1, "again")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Seq, "sequence restarts with the new conversation")
}
