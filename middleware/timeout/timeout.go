// Package timeout 提供消息处理超时中间件。
//
// 为每条消息设置处理截止时间，超时后 context 取消。
// 支持 Abandoned Context 模式：handler 可在返回后继续使用 context 中的值，
// 但不再受取消传播影响。
//
//	r.AddMiddleware(timeout.New(5 * time.Second))
//	r.AddMiddleware(timeout.NewWithConfig(timeout.Config{Timeout: 5 * time.Second, AllowOverrun: true}))
package timeout

import (
	"context"
	"time"

	"github.com/uniyakcom/wirebeat/message"
	"github.com/uniyakcom/wirebeat/router"
)

// Config 超时中间件配置
type Config struct {
	// Timeout 处理超时时间（必填）
	Timeout time.Duration

	// AllowOverrun 是否允许 handler 超时后继续执行（Abandoned Context 模式）。
	// true: handler 拿到切断取消传播的 context（适用于启动后台工作的 handler）
	// false: handler 返回后立即 cancel（默认）
	AllowOverrun bool
}

// New 创建超时中间件（默认模式：handler 返回后立即 cancel）。
func New(d time.Duration) router.Middleware {
	return NewWithConfig(Config{Timeout: d})
}

// NewWithConfig 创建带配置的超时中间件。
func NewWithConfig(cfg Config) router.Middleware {
	return func(h router.HandlerFunc) router.HandlerFunc {
		return func(ctx context.Context, msg message.Message) ([]message.Message, error) {
			if cfg.AllowOverrun {
				return h(context.WithoutCancel(ctx), msg)
			}
			ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
			return h(ctx, msg)
		}
	}
}
