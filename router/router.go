// Package router 提供消息路由器，把分发器的订阅流接到处理函数上。
//
// Router 是 wirebeat 的消费端调度中心：
//  1. 为每个 Handler 订阅一个消息类型（按 Handler 或分发器的投递策略）
//  2. 从订阅流拉取消息，交给 ants 协程池执行中间件链 + 处理函数
//  3. 将产出消息交给 Handler 的 Publisher（设备链路、重新分发等）
//
// 顺序 Handler 在上一条消息处理完成前不会拉取下一条，
// 此时到达的消息由投递策略处置（丢弃、保留最新、缓冲、折叠）。
package router

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/uniyakcom/wirebeat/dispatch"
	"github.com/uniyakcom/wirebeat/message"
)

// ErrRunning Run 被重复调用
var ErrRunning = errors.New("router: already running")

// ErrDuplicateTopic 多个处理器订阅同一消息类型
//
// 同一类型只对应一个活跃 Stream，两个处理器会互相抢占值。
var ErrDuplicateTopic = errors.New("router: duplicate topic")

// Dispatcher Router 依赖的分发器能力（*dispatch.Dispatcher[message.Type, message.Message] 满足）
type Dispatcher interface {
	SubscribeWith(topic message.Type, p dispatch.Policy) *dispatch.Stream[message.Type, message.Message]
	Dispatch(m message.Message) bool
}

// Stream 消息订阅流
type Stream = dispatch.Stream[message.Type, message.Message]

// Router 消息路由器
type Router struct {
	d           Dispatcher
	handlers    []*Handler
	middlewares []Middleware
	plugins     []RouterPlugin
	logger      zerolog.Logger
	workers     int

	running     chan struct{}
	runningOnce sync.Once
	closed      chan struct{}
	closedOnce  sync.Once
	mu          sync.Mutex
	isRunning   bool
}

// Config 路由器配置
type Config struct {
	// Logger 自定义日志。为 nil 时使用全局 zerolog 日志。
	Logger *zerolog.Logger

	// Workers 协程池大小（所有 Handler 共享）。<= 0 时取 GOMAXPROCS*4。
	Workers int
}

// NewRouter 创建路由器。
func NewRouter(d Dispatcher, cfg ...Config) *Router {
	logger := log.Logger
	workers := 0
	if len(cfg) > 0 {
		if cfg[0].Logger != nil {
			logger = *cfg[0].Logger
		}
		workers = cfg[0].Workers
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0) * 4
	}
	return &Router{
		d:       d,
		logger:  logger.With().Str("component", "router").Logger(),
		workers: workers,
		running: make(chan struct{}),
		closed:  make(chan struct{}),
	}
}

// AddMiddleware 添加全局中间件（对所有 Handler 生效）。
func (r *Router) AddMiddleware(m ...Middleware) {
	r.middlewares = append(r.middlewares, m...)
}

// AddPlugin 添加路由器插件（生命周期钩子）。
func (r *Router) AddPlugin(p ...RouterPlugin) {
	r.plugins = append(r.plugins, p...)
}

// Dispatcher 路由器订阅的分发器
func (r *Router) Dispatcher() Dispatcher { return r.d }

// AddHandler 添加完整处理管道：topic → handler → publisher。
//
// 每个消息类型只能有一个处理器，重复时 Run 返回 ErrDuplicateTopic。
//
//	r.AddHandler("ranger", rover.Range, link,
//	    func(ctx context.Context, msg message.Message) ([]message.Message, error) {
//	        return []message.Message{rover.Drive.New(rover.Motion{Left: 0, Right: 0})}, nil
//	    },
//	)
func (r *Router) AddHandler(
	name string,
	topic message.Type,
	publisher Publisher,
	handlerFunc HandlerFunc,
) *Handler {
	h := &Handler{
		name:        name,
		topic:       topic,
		publisher:   publisher,
		handlerFunc: handlerFunc,
		logger:      r.logger.With().Str("handler", name).Str("topic", topic.Name()).Logger(),
	}
	r.handlers = append(r.handlers, h)
	return h
}

// On 订阅消息类型并处理（不发布产出）。
//
//	r.On("battery", rover.Battery, func(ctx context.Context, msg message.Message) error {
//	    // 记录电量
//	    return nil
//	})
func (r *Router) On(name string, topic message.Type, handlerFunc ConsumerFunc) *Handler {
	return r.AddHandler(
		name, topic, nil,
		func(ctx context.Context, msg message.Message) ([]message.Message, error) {
			return nil, handlerFunc(ctx, msg)
		},
	)
}

// Run 启动路由器，阻塞直到 ctx 取消或全部订阅关闭。
//
// 流程：插件启动 → 构建中间件链 → 订阅全部消息类型 → 发出 Running 信号 → 消息循环。
// Running() channel 在所有订阅建立后才关闭，此后分发的消息不会因无人订阅而丢弃。
func (r *Router) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return ErrRunning
	}
	r.isRunning = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.isRunning = false
		r.mu.Unlock()
	}()

	owners := make(map[message.Type]string, len(r.handlers))
	for _, h := range r.handlers {
		if prev, ok := owners[h.topic]; ok {
			return fmt.Errorf("%w: %s (handlers %q, %q)", ErrDuplicateTopic, h.topic.Name(), prev, h.name)
		}
		owners[h.topic] = h.name
	}

	// 启动插件
	for _, p := range r.plugins {
		if err := p.OnStart(ctx, r); err != nil {
			return err
		}
	}

	pool, err := ants.NewPool(r.workers,
		ants.WithLogger(&r.logger),
		ants.WithPanicHandler(func(rec any) {
			r.logger.Error().Interface("recovered", rec).Msg("worker panic")
		}),
	)
	if err != nil {
		return err
	}
	defer pool.Release()

	// 预建中间件链 + 订阅（在发出 Running 信号前完成）
	type handlerRun struct {
		handler *Handler
		fn      HandlerFunc
		stream  *Stream
	}

	runs := make([]handlerRun, 0, len(r.handlers))
	for _, h := range r.handlers {
		fn := h.handlerFunc
		for i := len(h.middlewares) - 1; i >= 0; i-- {
			fn = h.middlewares[i](fn)
		}
		for i := len(r.middlewares) - 1; i >= 0; i-- {
			fn = r.middlewares[i](fn)
		}

		s := r.d.SubscribeWith(h.topic, h.policy)
		h.logger.Info().Stringer("policy", s.Policy()).Msg("handler subscribed")
		runs = append(runs, handlerRun{handler: h, fn: fn, stream: s})
	}

	// 所有订阅就绪，发出 Running 信号
	r.runningOnce.Do(func() { close(r.running) })

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// 启动消息循环
	var wg sync.WaitGroup
	for _, run := range runs {
		wg.Add(1)
		go func(h *Handler, fn HandlerFunc, s *Stream) {
			defer wg.Done()
			r.runHandlerLoop(runCtx, pool, h, fn, s)
		}(run.handler, run.fn, run.stream)
	}

	allDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(allDone)
	}()

	// 等待 context 取消或全部订阅关闭
	select {
	case <-ctx.Done():
	case <-allDone:
		r.logger.Info().Msg("all subscriptions closed")
	}

	// 关闭信号
	r.closedOnce.Do(func() { close(r.closed) })
	cancel()
	<-allDone

	// 清理插件
	for _, p := range r.plugins {
		p.OnStop(r)
	}
	return nil
}

// Running 返回一个 channel，在 Router 开始运行后关闭。用于等待启动完成。
func (r *Router) Running() <-chan struct{} {
	return r.running
}

// Closed 返回一个 channel，在 Router 关闭后关闭。
func (r *Router) Closed() <-chan struct{} {
	return r.closed
}

// IsRunning 返回路由器是否正在运行。
func (r *Router) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isRunning
}

// Handlers 返回已注册的 Handler 列表（只读）。
func (r *Router) Handlers() []*Handler {
	return r.handlers
}

// runHandlerLoop 运行单个 Handler 的消息循环（订阅已在 Run 中完成）。
//
// 在途消息数由 sem 限制；通道因溢出失败时重新订阅。
func (r *Router) runHandlerLoop(ctx context.Context, pool *ants.Pool, h *Handler, fn HandlerFunc, s *Stream) {
	sem := make(chan struct{}, max(h.concurrency, 1))
	var inflight sync.WaitGroup
	defer func() {
		inflight.Wait()
		s.Close()
	}()

	h.logger.Info().Msg("handler started")
	for {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			h.logger.Info().Msg("handler stopped")
			return
		}

		msg, err := s.Next(ctx)
		if err != nil {
			<-sem
			switch {
			case ctx.Err() != nil:
				h.logger.Info().Msg("handler stopped")
				return
			case errors.Is(err, dispatch.ErrOverflow):
				h.logger.Warn().Err(err).Msg("subscription failed, resubscribing")
				s = r.d.SubscribeWith(h.topic, h.policy)
				continue
			default:
				h.logger.Info().Msg("subscription closed")
				return
			}
		}

		inflight.Add(1)
		task := func() {
			defer func() {
				<-sem
				inflight.Done()
			}()
			r.processMessage(ctx, h, fn, msg)
		}
		if err := pool.Submit(task); err != nil {
			h.logger.Warn().Err(err).Msg("pool rejected task, running inline")
			task()
		}
	}
}

// processMessage 处理单条消息：执行 handler、发布产出，失败时送往 DLQ。
func (r *Router) processMessage(ctx context.Context, h *Handler, fn HandlerFunc, msg message.Message) {
	defer func() {
		if rec := recover(); rec != nil {
			h.failed.Add(1)
			h.logger.Error().Interface("recovered", rec).Msg("handler panic")
			h.sendToDLQ(ctx, msg)
		}
	}()

	produced, err := fn(ctx, msg)
	if err != nil {
		h.failed.Add(1)
		h.logger.Error().Err(err).Stringer("message", msg).Msg("handler error")
		h.sendToDLQ(ctx, msg)
		return
	}

	// 发布产出消息
	if h.publisher != nil && len(produced) > 0 {
		if err := h.publisher.Publish(ctx, produced...); err != nil {
			h.failed.Add(1)
			h.logger.Error().Err(err).Msg("publish error")
			return
		}
	}

	h.processed.Add(1)
}
