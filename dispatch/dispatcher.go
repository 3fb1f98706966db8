// Package dispatch 按主题路由的分发器与投递策略
//
// Dispatcher 持有 主题 → 通道 的映射。Subscribe 返回消费端 Stream，
// 主题不存在或原通道已终止时原子地新建通道；Dispatch 计算 topicOf(v)
// 并转交给存活通道，没有订阅者时值被直接丢弃（不为无人订阅的主题缓冲）。
//
// 生产者从不等待慢消费者：消费者挂起在 Next 时值直接移交，
// 否则由通道的 Policy 在一个很短的临界区内处置（丢弃、保留一个、缓冲、折叠）。
//
//	d := dispatch.New(message.Topic, dispatch.WithPolicy(dispatch.Latest()))
//	s := d.Subscribe(Range)
//	d.Dispatch(Range.New(1200))
//	m, err := s.Next(ctx)
package dispatch

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/uniyakcom/wirebeat/internal/support/counter"
)

// Stats 运行时统计快照
type Stats struct {
	Dispatched int64 // Dispatch 调用次数
	Delivered  int64 // 交付给消费者的值
	Retained   int64 // 当前被策略保留、尚未交付的值
	Dropped    int64 // 被策略丢弃或随通道关闭丢弃的值
	Unrouted   int64 // 没有存活订阅者而丢弃的值
	Failed     int64 // 因溢出失败终止的通道数
	Channels   int   // 当前存活通道数
}

// Option 分发器选项
type Option func(*options)

type options struct {
	policy Policy
	log    zerolog.Logger
}

// WithPolicy 默认投递策略（缺省 Unbounded）
func WithPolicy(p Policy) Option {
	return func(o *options) {
		if p != nil {
			o.policy = p
		}
	}
}

// WithLogger 日志（缺省为全局 zerolog 日志）
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// Dispatcher 主题分发器
type Dispatcher[K comparable, V any] struct {
	topicOf func(V) K
	policy  Policy
	log     zerolog.Logger

	mu      sync.RWMutex
	streams map[K]*Stream[K, V]
	closed  bool

	dispatched *counter.Sharded
	delivered  *counter.Sharded
	dropped    *counter.Sharded
	unrouted   *counter.Sharded
	retained   atomic.Int64
	failed     atomic.Int64
}

// New 创建分发器，topicOf 从值中提取路由主题
func New[K comparable, V any](topicOf func(V) K, opts ...Option) *Dispatcher[K, V] {
	if topicOf == nil {
		panic("dispatch: nil topic function")
	}
	o := options{policy: Unbounded(), log: log.Logger}
	for _, opt := range opts {
		opt(&o)
	}
	return &Dispatcher[K, V]{
		topicOf:    topicOf,
		policy:     o.policy,
		log:        o.log.With().Str("component", "dispatch").Logger(),
		streams:    make(map[K]*Stream[K, V]),
		dispatched: counter.New(),
		delivered:  counter.New(),
		dropped:    counter.New(),
		unrouted:   counter.New(),
	}
}

// Policy 默认投递策略
func (d *Dispatcher[K, V]) Policy() Policy { return d.policy }

// Subscribe 以默认策略订阅主题
func (d *Dispatcher[K, V]) Subscribe(topic K) *Stream[K, V] {
	return d.SubscribeWith(topic, d.policy)
}

// SubscribeWith 以指定策略订阅主题
//
// 主题已有存活通道时返回同一个 *Stream，p 被忽略。
func (d *Dispatcher[K, V]) SubscribeWith(topic K, p Policy) *Stream[K, V] {
	if p == nil {
		p = d.policy
	}
	d.mu.RLock()
	s := d.streams[topic]
	d.mu.RUnlock()
	if s != nil && s.live() {
		return s
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if s = d.streams[topic]; s != nil && s.live() {
		return s
	}
	s = newStream(d, topic, p)
	if d.closed {
		s.closed, s.err = true, ErrClosed
		close(s.done)
		return s
	}
	d.streams[topic] = s
	d.log.Debug().Func(topicField(topic)).Stringer("policy", p).Msg("channel created")
	return s
}

// Dispatch 按 topicOf(v) 路由；返回值是否到达存活通道
func (d *Dispatcher[K, V]) Dispatch(v V) bool {
	return d.DispatchTo(d.topicOf(v), v)
}

// Multicast 同 Dispatch
func (d *Dispatcher[K, V]) Multicast(v V) bool {
	return d.DispatchTo(d.topicOf(v), v)
}

// DispatchTo 把 v 投递到指定主题
func (d *Dispatcher[K, V]) DispatchTo(topic K, v V) bool {
	d.dispatched.Add(1)

	d.mu.RLock()
	s := d.streams[topic]
	if s == nil {
		d.mu.RUnlock()
		d.unrouted.Add(1)
		return false
	}
	res := s.offer(v)
	d.mu.RUnlock()

	switch {
	case res.closed:
		d.unrouted.Add(1)
		return false
	case res.delivered:
		d.delivered.Add(1)
	}
	if res.dropped > 0 {
		d.dropped.Add(int64(res.dropped))
	}
	if res.retained != 0 {
		d.retained.Add(int64(res.retained))
	}
	if res.failed {
		d.failed.Add(1)
		d.retire(s)
		d.log.Warn().Func(topicField(topic)).Stringer("policy", s.policy).Msg("channel failed on overflow")
	}
	return true
}

// Topics 存活通道的主题快照
func (d *Dispatcher[K, V]) Topics() []K {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]K, 0, len(d.streams))
	for k := range d.streams {
		out = append(out, k)
	}
	return out
}

// Stats 运行时统计
func (d *Dispatcher[K, V]) Stats() Stats {
	d.mu.RLock()
	n := len(d.streams)
	d.mu.RUnlock()
	return Stats{
		Dispatched: d.dispatched.Load(),
		Delivered:  d.delivered.Load(),
		Retained:   d.retained.Load(),
		Dropped:    d.dropped.Load(),
		Unrouted:   d.unrouted.Load(),
		Failed:     d.failed.Load(),
		Channels:   n,
	}
}

// Close 关闭所有存活通道；之后的 Subscribe 返回已关闭的 Stream
func (d *Dispatcher[K, V]) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	streams := d.streams
	d.streams = make(map[K]*Stream[K, V])
	d.mu.Unlock()

	for _, s := range streams {
		s.terminate(ErrClosed)
	}
}

// retire 从映射中移除 s（仅当映射中仍是 s）
func (d *Dispatcher[K, V]) retire(s *Stream[K, V]) {
	d.mu.Lock()
	if d.streams[s.topic] == s {
		delete(d.streams, s.topic)
		d.log.Debug().Func(topicField(s.topic)).Msg("channel retired")
	}
	d.mu.Unlock()
}

func (d *Dispatcher[K, V]) onPoll(n int) {
	d.delivered.Add(int64(n))
	d.retained.Add(-int64(n))
}

func (d *Dispatcher[K, V]) onDiscard(n int) {
	if n == 0 {
		return
	}
	d.dropped.Add(int64(n))
	d.retained.Add(-int64(n))
}

// topicField 仅在日志级别启用时格式化主题
func topicField(topic any) func(e *zerolog.Event) {
	return func(e *zerolog.Event) { e.Str("topic", fmt.Sprint(topic)) }
}
