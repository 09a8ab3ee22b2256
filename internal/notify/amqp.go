package notify

import (
	"context"
	"time"

	"ats-evaluator/internal/logger"
	"ats-evaluator/internal/storage"

	"github.com/rs/zerolog"
)

// Publisher storage.RabbitMQ 满足该接口
type Publisher interface {
	PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error
}

// AMQPNotifier 将进度事件发布到 topic 交换机，路由键为 progress.<session_id>
type AMQPNotifier struct {
	publisher Publisher
	exchange  string
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewAMQPNotifier(publisher Publisher, exchange string, l *zerolog.Logger) *AMQPNotifier {
	if l == nil {
		l = &logger.Logger
	}
	return &AMQPNotifier{publisher: publisher, exchange: exchange, logger: l, now: time.Now}
}

func (n *AMQPNotifier) Notify(ctx context.Context, sessionID, message string, percent int) {
	if n == nil || n.publisher == nil || sessionID == "" {
		return
	}
	msg := storage.ProgressMessage{
		SessionID: sessionID,
		Message:   message,
		Percent:   percent,
		Timestamp: n.now().UTC(),
	}
	if err := n.publisher.PublishJSON(ctx, n.exchange, storage.ProgressRoutingKeyPrefix+sessionID, msg, false); err != nil {
		n.logger.Warn().Err(err).
			Str("session_id", sessionID).
			Int("percent", percent).
			Msg("发布进度事件失败")
	}
}
