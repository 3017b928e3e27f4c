// Package kafka 提供救护车调度队列的生产与消费。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"

	"medimate-go/internal/config"
	"medimate-go/pkg/log"
	"medimate-go/pkg/tasks"
)

// MaxAttempts 是同一任务的最大处理次数，超过后提交 offset 放弃重试。
const MaxAttempts = 3

// TaskProcessor 处理一条调度任务。
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.DispatchTask) error
}

// Producer 发布调度任务。
type Producer interface {
	PublishDispatch(ctx context.Context, task tasks.DispatchTask) error
}

type writerProducer struct {
	w *kafka.Writer
}

// NewProducer 创建 Kafka 生产者。
func NewProducer(cfg config.KafkaConfig) Producer {
	log.Infow("Kafka 生产者初始化成功", "topic", cfg.Topic)
	return &writerProducer{w: &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}}
}

// PublishDispatch 以请求 ID 作为消息 key 发布任务。
func (p *writerProducer) PublishDispatch(ctx context.Context, task tasks.DispatchTask) error {
	b, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{Key: []byte(task.RequestID), Value: b})
}

// AttemptCounter 记录任务失败次数，超过上限后放弃。
type AttemptCounter struct {
	rdb *redis.Client
}

func NewAttemptCounter(rdb *redis.Client) *AttemptCounter {
	return &AttemptCounter{rdb: rdb}
}

func attemptsKey(id string) string {
	return fmt.Sprintf("kafka:attempts:%s", id)
}

// Fail 递增失败次数，返回是否已达到上限。
func (c *AttemptCounter) Fail(ctx context.Context, id string) (bool, error) {
	n, err := c.rdb.Incr(ctx, attemptsKey(id)).Result()
	if err != nil {
		return false, err
	}
	_ = c.rdb.Expire(ctx, attemptsKey(id), 24*time.Hour).Err()
	return n >= MaxAttempts, nil
}

// Clear 任务成功后清理计数。
func (c *AttemptCounter) Clear(ctx context.Context, id string) {
	_ = c.rdb.Del(ctx, attemptsKey(id)).Err()
}

// retryBackoff 是失败重试的基础间隔，第 n 次重试等待 n 倍。
var retryBackoff = 500 * time.Millisecond

// committer 是 Handle 依赖的 Reader 子集。
type committer interface {
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// fetcher 是消费循环依赖的 Reader 子集。
type fetcher interface {
	committer
	FetchMessage(ctx context.Context) (kafka.Message, error)
}

// Handle 处理一条消息，直到成功或失败次数达到 MaxAttempts 后提交 offset。
// 失败次数记在 Redis 中，进程重启后重投的消息继续累计。
// 只有 ctx 取消时不提交，消息留给下一个消费者。
func Handle(ctx context.Context, r committer, m kafka.Message, processor TaskProcessor, counter *AttemptCounter) {
	var task tasks.DispatchTask
	if err := json.Unmarshal(m.Value, &task); err != nil {
		log.Errorf("无法解析调度消息: %v, value: %s", err, string(m.Value))
		commit(ctx, r, m)
		return
	}

	for attempt := 1; ; attempt++ {
		err := processor.Process(ctx, task)
		if err == nil {
			counter.Clear(ctx, task.RequestID)
			commit(ctx, r, m)
			return
		}
		log.Errorw("处理调度任务失败", "request_id", task.RequestID, "attempt", attempt, "error", err)

		// Redis 不可用时本地次数兜底
		exhausted, incErr := counter.Fail(ctx, task.RequestID)
		if incErr != nil {
			log.Warnw("记录调度失败次数失败", "request_id", task.RequestID, "error", incErr)
		}
		if exhausted || attempt >= MaxAttempts {
			log.Errorw("调度任务多次失败，放弃重试", "request_id", task.RequestID, "attempts", MaxAttempts)
			counter.Clear(ctx, task.RequestID)
			commit(ctx, r, m)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
}

func commit(ctx context.Context, r committer, m kafka.Message) {
	if err := r.CommitMessages(ctx, m); err != nil {
		log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
	}
}

// StartConsumer 阻塞消费调度任务，ctx 取消后返回。
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, processor TaskProcessor, counter *AttemptCounter) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer func() {
		if err := r.Close(); err != nil {
			log.Errorf("关闭 Kafka 消费者失败: %v", err)
		}
	}()

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)
	consume(ctx, r, processor, counter)
}

// consume 逐条拉取并处理消息。前一条提交或放弃之前不会拉取下一条。
func consume(ctx context.Context, r fetcher, processor TaskProcessor, counter *AttemptCounter) {
	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			log.Error("从 Kafka 读取消息失败", err)
			return
		}
		Handle(ctx, r, m, processor, counter)
	}
}
