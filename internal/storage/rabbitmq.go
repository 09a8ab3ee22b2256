package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"ats-evaluator/internal/config"
	"ats-evaluator/internal/logger"
	"ats-evaluator/internal/tracing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// MessageQueue 消息发布接口
type MessageQueue interface {
	// 发布消息
	PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error

	// 发布JSON格式消息
	PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error

	// 确保交换机存在
	EnsureExchange(exchangeName, exchangeType string, durable bool) error

	// 关闭连接
	Close() error
}

// 确保RabbitMQ实现了MessageQueue接口
var _ MessageQueue = (*RabbitMQ)(nil)

// RabbitMQ 提供消息发布功能
type RabbitMQ struct {
	conn        *amqp.Connection
	channels    chan *amqp.Channel // 通道池
	exchangeMu  sync.Mutex
	exchangeMap map[string]bool // 记录已声明的exchange
	cfg         *config.RabbitMQConfig
	logger      *zerolog.Logger
}

// NewRabbitMQ 创建RabbitMQ客户端，并声明进度交换机
func NewRabbitMQ(cfg *config.RabbitMQConfig) (*RabbitMQ, error) {
	if cfg == nil {
		return nil, fmt.Errorf("RabbitMQ配置不能为空")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("RabbitMQ URL配置不能为空")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("无法连接到RabbitMQ服务器: %w", err)
	}

	size := cfg.ChannelPoolSize
	if size <= 0 {
		size = 4
	}
	mq := &RabbitMQ{
		conn:        conn,
		channels:    make(chan *amqp.Channel, size),
		exchangeMap: make(map[string]bool),
		cfg:         cfg,
		logger:      &logger.Logger,
	}

	if cfg.ProgressExchange != "" {
		if err := mq.EnsureExchange(cfg.ProgressExchange, amqp.ExchangeTopic, true); err != nil {
			conn.Close()
			return nil, err
		}
	}

	mq.logger.Info().Str("exchange", cfg.ProgressExchange).Msg("成功连接到RabbitMQ服务器")
	return mq, nil
}

// getChannel 优先复用池中的通道，已关闭的通道直接丢弃
func (r *RabbitMQ) getChannel() (*amqp.Channel, error) {
	for {
		select {
		case ch := <-r.channels:
			if ch.IsClosed() {
				continue
			}
			return ch, nil
		default:
			ch, err := r.conn.Channel()
			if err != nil {
				return nil, fmt.Errorf("创建RabbitMQ通道失败: %w", err)
			}
			return ch, nil
		}
	}
}

// putChannel 归还通道到池，池满时关闭
func (r *RabbitMQ) putChannel(ch *amqp.Channel) {
	if ch == nil || ch.IsClosed() {
		return
	}
	select {
	case r.channels <- ch:
	default:
		ch.Close()
	}
}

// Close 关闭所有通道和连接
func (r *RabbitMQ) Close() error {
	for {
		select {
		case ch := <-r.channels:
			ch.Close()
		default:
			return r.conn.Close()
		}
	}
}

// EnsureExchange 确保exchange存在
func (r *RabbitMQ) EnsureExchange(exchangeName, exchangeType string, durable bool) error {
	if exchangeName == "" {
		return fmt.Errorf("exchange名称不能为空")
	}
	if exchangeName == "amq.default" || exchangeName == "default" {
		return fmt.Errorf("不能声明默认交换机 '%s'", exchangeName)
	}

	r.exchangeMu.Lock()
	defer r.exchangeMu.Unlock()
	if r.exchangeMap[exchangeName] {
		return nil
	}

	ch, err := r.getChannel()
	if err != nil {
		return err
	}
	defer r.putChannel(ch)

	err = ch.ExchangeDeclare(
		exchangeName, // exchange名称
		exchangeType, // exchange类型
		durable,      // 持久化
		false,        // 自动删除
		false,        // 内部专用
		false,        // 非阻塞
		nil,          // 参数
	)
	if err != nil {
		return fmt.Errorf("声明exchange失败: %w", err)
	}

	r.exchangeMap[exchangeName] = true
	r.logger.Debug().Str("exchange", exchangeName).Str("type", exchangeType).Msg("已确保exchange存在")
	return nil
}

// PublishMessage 发布消息到exchange，每次发布对应一个 producer span
func (r *RabbitMQ) PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error {
	ctx, span := tracing.StartSpan(ctx, "publish "+exchangeName,
		attribute.String("messaging.system", "rabbitmq"),
		attribute.String("messaging.destination.name", exchangeName),
		attribute.String("messaging.rabbitmq.destination.routing_key", routingKey),
		attribute.Int("messaging.message.body.size", len(message)))
	defer span.End()

	ch, err := r.getChannel()
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		return err
	}
	defer r.putChannel(ch)

	deliveryMode := amqp.Transient
	if persistent {
		deliveryMode = amqp.Persistent
	}

	err = ch.PublishWithContext(ctx, exchangeName, routingKey, false, false, amqp.Publishing{
		DeliveryMode: deliveryMode,
		ContentType:  "application/json",
		Body:         message,
		Timestamp:    time.Now(),
	})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		return fmt.Errorf("发布消息到 %s/%s 失败: %w", exchangeName, routingKey, err)
	}
	return nil
}

// PublishJSON 发布JSON格式的消息
func (r *RabbitMQ) PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("JSON序列化失败: %w", err)
	}
	return r.PublishMessage(ctx, exchangeName, routingKey, jsonData, persistent)
}
