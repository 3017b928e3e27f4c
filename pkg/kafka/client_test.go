package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medimate-go/pkg/tasks"
)

type fakeCommitter struct {
	committed int
}

func (f *fakeCommitter) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.committed += len(msgs)
	return nil
}

type fakeProcessor struct {
	err   error
	calls int
}

func (f *fakeProcessor) Process(context.Context, tasks.DispatchTask) error {
	f.calls++
	return f.err
}

// fakeReader 按顺序返回消息，取完后报告 ctx 取消。
type fakeReader struct {
	msgs      []kafka.Message
	committed []string
}

func (f *fakeReader) FetchMessage(context.Context) (kafka.Message, error) {
	if len(f.msgs) == 0 {
		return kafka.Message{}, context.Canceled
	}
	m := f.msgs[0]
	f.msgs = f.msgs[1:]
	return m, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		f.committed = append(f.committed, string(m.Key))
	}
	return nil
}

// flakyProcessor 对指定请求先失败 failures 次再成功。
type flakyProcessor struct {
	failures map[string]int
	seen     []string
}

func (f *flakyProcessor) Process(_ context.Context, task tasks.DispatchTask) error {
	f.seen = append(f.seen, task.RequestID)
	if f.failures[task.RequestID] > 0 {
		f.failures[task.RequestID]--
		return errors.New("db down")
	}
	return nil
}

func dispatchMessage(id string) kafka.Message {
	return kafka.Message{Key: []byte(id), Value: []byte(`{"request_id":"` + id + `","user_id":1,"address":"1 Main St"}`)}
}

func noBackoff(t *testing.T) {
	old := retryBackoff
	retryBackoff = 0
	t.Cleanup(func() { retryBackoff = old })
}

func newCounter(t *testing.T) (*AttemptCounter, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	return NewAttemptCounter(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

func TestHandle(t *testing.T) {
	noBackoff(t)
	ctx := context.Background()
	msg := kafka.Message{Value: []byte(`{"request_id":"AMB-123456","user_id":1,"address":"1 Main St"}`)}

	t.Run("success commits and clears attempts", func(t *testing.T) {
		counter, mr := newCounter(t)
		mr.Set("kafka:attempts:AMB-123456", "1")
		c := &fakeCommitter{}

		Handle(ctx, c, msg, &fakeProcessor{}, counter)

		assert.Equal(t, 1, c.committed)
		assert.False(t, mr.Exists("kafka:attempts:AMB-123456"))
	})

	t.Run("failure retries in place until max attempts", func(t *testing.T) {
		counter, mr := newCounter(t)
		c := &fakeCommitter{}
		p := &fakeProcessor{err: errors.New("db down")}

		Handle(ctx, c, msg, p, counter)
		assert.Equal(t, MaxAttempts, p.calls)
		assert.Equal(t, 1, c.committed)
		assert.False(t, mr.Exists("kafka:attempts:AMB-123456"))
	})

	t.Run("attempts survive a restart", func(t *testing.T) {
		counter, mr := newCounter(t)
		mr.Set("kafka:attempts:AMB-123456", "2")
		c := &fakeCommitter{}
		p := &fakeProcessor{err: errors.New("db down")}

		Handle(ctx, c, msg, p, counter)
		assert.Equal(t, 1, p.calls)
		assert.Equal(t, 1, c.committed)
	})

	t.Run("redis outage falls back to local attempts", func(t *testing.T) {
		counter, mr := newCounter(t)
		mr.Close()
		c := &fakeCommitter{}
		p := &fakeProcessor{err: errors.New("db down")}

		Handle(ctx, c, msg, p, counter)
		assert.Equal(t, MaxAttempts, p.calls)
		assert.Equal(t, 1, c.committed)
	})

	t.Run("cancelled context leaves message uncommitted", func(t *testing.T) {
		counter, _ := newCounter(t)
		old := retryBackoff
		retryBackoff = time.Hour
		t.Cleanup(func() { retryBackoff = old })
		cctx, cancel := context.WithCancel(ctx)
		c := &fakeCommitter{}
		p := &fakeProcessor{err: errors.New("db down")}

		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()
		Handle(cctx, c, msg, p, counter)
		assert.Equal(t, 1, p.calls)
		assert.Zero(t, c.committed)
	})

	t.Run("malformed message is committed", func(t *testing.T) {
		counter, _ := newCounter(t)
		c := &fakeCommitter{}
		p := &fakeProcessor{}

		Handle(ctx, c, kafka.Message{Value: []byte("{")}, p, counter)
		assert.Equal(t, 1, c.committed)
		assert.Zero(t, p.calls)
	})
}

func TestConsume(t *testing.T) {
	noBackoff(t)

	t.Run("failing message is retried before the next one is fetched", func(t *testing.T) {
		counter, _ := newCounter(t)
		r := &fakeReader{msgs: []kafka.Message{dispatchMessage("AMB-100001"), dispatchMessage("AMB-100002")}}
		p := &flakyProcessor{failures: map[string]int{"AMB-100001": 2}}

		consume(context.Background(), r, p, counter)

		assert.Equal(t, []string{"AMB-100001", "AMB-100001", "AMB-100001", "AMB-100002"}, p.seen)
		assert.Equal(t, []string{"AMB-100001", "AMB-100002"}, r.committed)
	})

	t.Run("exhausted message is committed and the stream moves on", func(t *testing.T) {
		counter, _ := newCounter(t)
		r := &fakeReader{msgs: []kafka.Message{dispatchMessage("AMB-100001"), dispatchMessage("AMB-100002")}}
		p := &flakyProcessor{failures: map[string]int{"AMB-100001": 10}}

		consume(context.Background(), r, p, counter)

		require.Len(t, p.seen, MaxAttempts+1)
		assert.Equal(t, "AMB-100002", p.seen[MaxAttempts])
		assert.Equal(t, []string{"AMB-100001", "AMB-100002"}, r.committed)
	})
}
