package ratelimit

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 2 * time.Second
)

// RetryPolicy 固定间隔的重试策略，失败后等待 Delay 再次尝试，最多 MaxAttempts 次
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	// OnRetry 在每次重试前调用，attempt 为即将进行的尝试序号(从2开始)
	OnRetry func(attempt, maxAttempts int, err error)
}

// NewRetryPolicy 返回带默认值修正的策略
func NewRetryPolicy(maxAttempts int, delay time.Duration) RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if delay < 0 {
		delay = DefaultRetryDelay
	}
	return RetryPolicy{MaxAttempts: maxAttempts, Delay: delay}
}

// Do 执行 fn，失败时按策略重试；上下文取消立即返回，不再重试
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return fmt.Errorf("%w (last error: %v)", ctxErr, err)
			}
			return ctxErr
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt+1, attempts, err)
		}

		if p.Delay > 0 {
			timer := time.NewTimer(p.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
			case <-timer.C:
			}
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", attempts, err)
}

// DoValue 是 Do 的泛型版本，返回成功调用的结果
func DoValue[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := p.Do(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}
