// Package outbox 实现发件箱模式：消息与业务记录同事务写入，由中继异步发布到消息代理。
package outbox

import (
	"context"
	"time"

	"ats-evaluator/internal/logger"
	"ats-evaluator/internal/storage/models"
	"ats-evaluator/internal/tracing"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultPollingInterval = 5 * time.Second
	defaultBatchSize       = 10
	maxRetryCount          = 5
)

// Publisher 中继使用的消息发布接口，storage.RabbitMQ 实现了它
type Publisher interface {
	PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error
}

// MessageRelay 轮询 outbox 表并将消息发布到消息代理。
type MessageRelay struct {
	db              *gorm.DB
	publisher       Publisher
	logger          *zerolog.Logger
	pollingInterval time.Duration
	batchSize       int
	done            chan struct{}
	stopped         chan struct{}
}

// Option MessageRelay 的配置选项
type Option func(*MessageRelay)

func WithPollingInterval(d time.Duration) Option {
	return func(r *MessageRelay) {
		if d > 0 {
			r.pollingInterval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *MessageRelay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// NewMessageRelay 创建一个新的 MessageRelay 实例。
func NewMessageRelay(db *gorm.DB, publisher Publisher, opts ...Option) *MessageRelay {
	r := &MessageRelay{
		db:              db,
		publisher:       publisher,
		logger:          &logger.Logger,
		pollingInterval: defaultPollingInterval,
		batchSize:       defaultBatchSize,
		done:            make(chan struct{}),
		stopped:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start 在后台开始轮询
func (r *MessageRelay) Start() {
	r.logger.Info().Dur("interval", r.pollingInterval).Msg("发件箱中继已启动")
	ticker := time.NewTicker(r.pollingInterval)

	go func() {
		defer close(r.stopped)
		defer ticker.Stop()
		for {
			select {
			case <-r.done:
				r.logger.Info().Msg("发件箱中继已停止")
				return
			case <-ticker.C:
				if _, err := r.ProcessPendingMessages(context.Background()); err != nil {
					r.logger.Error().Err(err).Msg("处理发件箱消息失败")
				}
			}
		}
	}()
}

// Stop 停止轮询并等待后台协程退出
func (r *MessageRelay) Stop() {
	close(r.done)
	<-r.stopped
}

// ProcessPendingMessages 获取并发布一批待处理消息，返回本批处理的条数。
// 使用 FOR UPDATE SKIP LOCKED，多个实例可以同时运行。
func (r *MessageRelay) ProcessPendingMessages(ctx context.Context) (int, error) {
	var messages []models.OutboxMessage

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return 0, tx.Error
	}
	defer tx.Rollback()

	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ?", models.OutboxStatusPending).
		Order("created_at asc").
		Limit(r.batchSize).
		Find(&messages).Error
	if err != nil {
		return 0, err
	}

	// 空轮询不创建span
	if len(messages) == 0 {
		return 0, tx.Commit().Error
	}

	ctx, span := tracing.StartSpan(ctx, "outbox.ProcessBatch",
		attribute.Int("messaging.batch.message_count", len(messages)))
	defer span.End()

	for i := range messages {
		msg := &messages[i]
		err := r.publisher.PublishMessage(ctx, msg.TargetExchange, msg.TargetRoutingKey, []byte(msg.Payload), true)
		if err != nil {
			msg.RetryCount++
			msg.ErrorMessage = err.Error()
			if msg.RetryCount >= maxRetryCount {
				msg.Status = models.OutboxStatusFailed
			}
			r.logger.Warn().Err(err).Uint64("id", msg.ID).Str("aggregate_id", msg.AggregateID).
				Int("retries", msg.RetryCount).Msg("发件箱消息发布失败")
		} else {
			now := time.Now()
			msg.Status = models.OutboxStatusSent
			msg.ProcessedAt = &now
			msg.ErrorMessage = ""
		}

		// 更新失败时整个事务回滚，消息会在下一次轮询中重新处理
		if err := tx.Save(msg).Error; err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeDB)
			return 0, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return 0, err
	}
	return len(messages), nil
}
