package router

import (
	"context"

	"github.com/uniyakcom/wirebeat/message"
)

// Publisher 产出消息的去向（设备链路、另一个分发器等）
type Publisher interface {
	Publish(ctx context.Context, msgs ...message.Message) error
}

// PublisherFunc 函数适配器
type PublisherFunc func(ctx context.Context, msgs ...message.Message) error

// Publish 实现 Publisher
func (f PublisherFunc) Publish(ctx context.Context, msgs ...message.Message) error {
	return f(ctx, msgs...)
}

// Redispatch 把产出消息重新投入分发器（按消息类型路由）
func Redispatch(d Dispatcher) Publisher {
	return PublisherFunc(func(_ context.Context, msgs ...message.Message) error {
		for _, m := range msgs {
			d.Dispatch(m)
		}
		return nil
	})
}
