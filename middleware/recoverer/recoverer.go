// Package recoverer 把消费 handler 内的 panic 转为 *PanicError
//
//	r.AddMiddleware(recoverer.New())
package recoverer

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/uniyakcom/wirebeat/message"
	"github.com/uniyakcom/wirebeat/router"
)

// PanicError 一次被恢复的 panic
type PanicError struct {
	Type  string // 触发 panic 的消息类型名
	Value any
	Stack []byte // 仅 WithStack 时填充
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("recoverer: %s handler panicked: %v", e.Type, e.Value)
}

// Unwrap panic 值是 error 时返回它
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

type Option func(*options)

type options struct {
	stack bool
}

// WithStack 在 PanicError 中记录调用栈
func WithStack() Option {
	return func(o *options) { o.stack = true }
}

// New 创建 panic 恢复中间件
func New(opts ...Option) router.Middleware {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return func(h router.HandlerFunc) router.HandlerFunc {
		return func(ctx context.Context, msg message.Message) (produced []message.Message, err error) {
			defer func() {
				if v := recover(); v != nil {
					pe := &PanicError{Type: typeName(msg), Value: v}
					if o.stack {
						pe.Stack = debug.Stack()
					}
					produced, err = nil, pe
				}
			}()
			return h(ctx, msg)
		}
	}
}

func typeName(msg message.Message) string {
	if t := msg.Type(); t != nil {
		return t.Name()
	}
	return "untyped"
}
