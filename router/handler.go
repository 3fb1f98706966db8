package router

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/uniyakcom/wirebeat/dispatch"
	"github.com/uniyakcom/wirebeat/message"
)

// HandlerFunc 消息处理函数（单条）
//
// 接收一条消息，返回零或多条产出消息和可选 error。
// 产出消息交给 Handler 配置的 Publisher。
type HandlerFunc func(ctx context.Context, msg message.Message) ([]message.Message, error)

// ConsumerFunc 纯消费处理函数（无产出）
type ConsumerFunc func(ctx context.Context, msg message.Message) error

// DLQConfig 死信配置
type DLQConfig struct {
	// Publisher 处理失败（error 或 panic）的原始消息发往此处
	Publisher Publisher
}

// Handler 消息处理器（订阅一个消息类型）
type Handler struct {
	name        string
	topic       message.Type
	policy      dispatch.Policy
	publisher   Publisher
	handlerFunc HandlerFunc
	middlewares []Middleware
	logger      zerolog.Logger

	// 并发
	concurrency int // 同时在途的消息数（0/1 = 顺序）

	// 容错
	dlq *DLQConfig

	processed atomic.Int64
	failed    atomic.Int64
}

// Name 处理器名称
func (h *Handler) Name() string { return h.name }

// Topic 订阅的消息类型
func (h *Handler) Topic() message.Type { return h.topic }

// AddMiddleware 添加 Handler 专属中间件。
func (h *Handler) AddMiddleware(m ...Middleware) *Handler {
	h.middlewares = append(h.middlewares, m...)
	return h
}

// Workers 设置同时在途的消息数。
// n > 1 时多条消息并行处理，彼此无序。
// n <= 1 时顺序处理（默认），保证消息有序；处理期间不拉取新消息，背压交给投递策略。
func (h *Handler) Workers(n int) *Handler {
	h.concurrency = n
	return h
}

// Policy 设置该订阅的投递策略（缺省使用分发器的默认策略）。
func (h *Handler) Policy(p dispatch.Policy) *Handler {
	h.policy = p
	return h
}

// DLQ 配置死信去向。
func (h *Handler) DLQ(cfg DLQConfig) *Handler {
	h.dlq = &cfg
	return h
}

// Processed 成功处理的消息数
func (h *Handler) Processed() int64 { return h.processed.Load() }

// Failed 处理失败（error 或 panic）的消息数
func (h *Handler) Failed() int64 { return h.failed.Load() }

// sendToDLQ 将消息发送到死信去向。
func (h *Handler) sendToDLQ(ctx context.Context, msg message.Message) {
	if h.dlq == nil || h.dlq.Publisher == nil {
		return
	}
	if err := h.dlq.Publisher.Publish(ctx, msg); err != nil {
		h.logger.Error().Err(err).Msg("DLQ publish failed")
	}
}

// Typed 把按内容类型编写的处理函数适配为 ConsumerFunc
//
//	r.On("range", rover.Range, router.Typed(rover.Range, func(ctx context.Context, mm int32) error {
//	    return nil
//	}))
func Typed[T any](mt *message.MessageType[T], fn func(ctx context.Context, v T) error) ConsumerFunc {
	return func(ctx context.Context, msg message.Message) error {
		v, err := mt.Value(msg)
		if err != nil {
			return err
		}
		return fn(ctx, v)
	}
}
