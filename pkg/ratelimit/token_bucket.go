package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenBucket 按每分钟请求数(QPM)限流，允许 burst 个请求的突发
type TokenBucket struct {
	mu     sync.Mutex
	perSec float64
	burst  float64
	tokens float64
	last   time.Time
	now    func() time.Time
}

// NewTokenBucket qpm<=0 时按 60 处理，burst<=0 时取 qpm/2 且至少为 1
func NewTokenBucket(qpm, burst int) *TokenBucket {
	if qpm <= 0 {
		qpm = 60
	}
	if burst <= 0 {
		burst = max(qpm/2, 1)
	}
	now := time.Now()
	return &TokenBucket{
		perSec: float64(qpm) / 60,
		burst:  float64(burst),
		tokens: float64(burst),
		last:   now,
		now:    time.Now,
	}
}

// take 有令牌时消耗一个并返回 0，否则返回距下一个令牌的等待时间
func (tb *TokenBucket) take() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	tb.tokens = min(tb.burst, tb.tokens+now.Sub(tb.last).Seconds()*tb.perSec)
	tb.last = now

	if tb.tokens >= 1 {
		tb.tokens--
		return 0
	}
	return max(time.Duration((1-tb.tokens)/tb.perSec*float64(time.Second)), time.Nanosecond)
}

// Allow 不阻塞，没有令牌时返回 false
func (tb *TokenBucket) Allow() bool {
	return tb.take() == 0
}

// Wait 阻塞直到取得令牌或 ctx 结束
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		wait := tb.take()
		if wait == 0 {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
