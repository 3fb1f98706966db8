// Package retry 消费 handler 失败时按指数退避重试
//
// 只作用于消费端；线上解码失败不在这一层，也不会被重试。
// 默认跳过 Permanent 错误：类型不符、负载畸形这类失败重试也不会变好。
//
//	r.AddMiddleware(retry.New(retry.Config{
//	    MaxRetries:      3,
//	    InitialInterval: 100 * time.Millisecond,
//	}))
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uniyakcom/wirebeat/codec"
	"github.com/uniyakcom/wirebeat/message"
	"github.com/uniyakcom/wirebeat/router"
)

// Config 重试配置，零值字段取缺省
type Config struct {
	MaxRetries      int           // 不含首次执行，缺省 3
	InitialInterval time.Duration // 缺省 100ms
	MaxInterval     time.Duration // 缺省 10s
	Multiplier      float64       // 缺省 2

	// ShouldRetry 为 nil 时重试一切非 Permanent 错误
	ShouldRetry func(err error) bool

	// OnRetry 每次退避前调用，attempt 从 1 开始
	OnRetry func(msg message.Message, attempt int, err error)
}

func (c *Config) defaults() {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = 100 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 10 * time.Second
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2
	}
	if c.ShouldRetry == nil {
		c.ShouldRetry = func(err error) bool { return !Permanent(err) }
	}
}

// backoff 第 attempt 次重试前的等待时间
func (c *Config) backoff(attempt int) time.Duration {
	d := float64(c.InitialInterval)
	for i := 1; i < attempt; i++ {
		d *= c.Multiplier
		if d >= float64(c.MaxInterval) {
			return c.MaxInterval
		}
	}
	return time.Duration(d)
}

// Permanent 消息本身有问题或调用方已放弃的错误
func Permanent(err error) bool {
	return errors.Is(err, message.ErrTypeMismatch) ||
		errors.Is(err, message.ErrUntyped) ||
		errors.Is(err, codec.ErrMalformed) ||
		errors.Is(err, context.Canceled)
}

// New 创建重试中间件
func New(cfg Config) router.Middleware {
	cfg.defaults()

	return func(h router.HandlerFunc) router.HandlerFunc {
		return func(ctx context.Context, msg message.Message) ([]message.Message, error) {
			produced, err := h(ctx, msg)
			for attempt := 1; err != nil; attempt++ {
				if attempt > cfg.MaxRetries {
					return nil, fmt.Errorf("retry: gave up after %d attempts: %w", attempt, err)
				}
				if !cfg.ShouldRetry(err) {
					return nil, err
				}
				if cfg.OnRetry != nil {
					cfg.OnRetry(msg, attempt, err)
				}

				t := time.NewTimer(cfg.backoff(attempt))
				select {
				case <-ctx.Done():
					t.Stop()
					return nil, ctx.Err()
				case <-t.C:
				}
				produced, err = h(ctx, msg)
			}
			return produced, nil
		}
	}
}
