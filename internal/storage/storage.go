package storage

import (
	"context"
	"errors"
	"fmt"

	"ats-evaluator/internal/config"
	"ats-evaluator/internal/logger"
)

// Storage 存储管理器，聚合所有可选的存储相关依赖
type Storage struct {
	// 对象存储
	MinIO *MinIO

	// 消息队列
	RabbitMQ *RabbitMQ

	// 关系型数据库
	MySQL *MySQL

	// 键值存储
	Redis *Redis
}

// NewStorage 按配置初始化各组件，未配置的组件保持为 nil。
// 已配置但初始化失败的组件会导致整体失败，并关闭已建立的连接。
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	s := &Storage{}
	var err error

	if cfg.Redis.Address != "" {
		if s.Redis, err = NewRedisAdapter(&cfg.Redis); err != nil {
			return nil, s.closeOnError(fmt.Errorf("Redis: %w", err))
		}
		logger.Info().Str("address", cfg.Redis.Address).Msg("Redis初始化成功")
	}

	if cfg.MinIO.Endpoint != "" {
		if s.MinIO, err = NewMinIO(ctx, &cfg.MinIO, nil); err != nil {
			return nil, s.closeOnError(fmt.Errorf("MinIO: %w", err))
		}
	}

	if cfg.RabbitMQ.URL != "" {
		if s.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ); err != nil {
			return nil, s.closeOnError(fmt.Errorf("RabbitMQ: %w", err))
		}
	}

	if cfg.MySQL.Host != "" {
		if s.MySQL, err = NewMySQL(&cfg.MySQL); err != nil {
			return nil, s.closeOnError(fmt.Errorf("MySQL: %w", err))
		}
	}

	return s, nil
}

func (s *Storage) closeOnError(err error) error {
	return errors.Join(err, s.Close())
}

// Close 关闭所有连接
func (s *Storage) Close() error {
	var errs []error
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			errs = append(errs, fmt.Errorf("关闭RabbitMQ连接失败: %w", err))
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			errs = append(errs, fmt.Errorf("关闭MySQL连接失败: %w", err))
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("关闭Redis连接失败: %w", err))
		}
	}
	return errors.Join(errs...)
}
