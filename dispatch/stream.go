package dispatch

import (
	"context"
	"sync"
)

// Stream 消费端视图（一个主题的一个存活通道）
//
// 同一存活主题的所有订阅者拿到同一个 *Stream，多个 goroutine 并发调用 Next
// 时按到达顺序竞争消费。Close 后通道立即退役，之后 Subscribe 同一主题会得到新通道。
type Stream[K comparable, V any] struct {
	topic  K
	policy Policy
	owner  *Dispatcher[K, V]

	mu      sync.Mutex
	st      strategy
	waiters []chan any // 已挂起的消费者（FIFO），容量 1
	closed  bool
	err     error
	done    chan struct{}
}

func newStream[K comparable, V any](d *Dispatcher[K, V], topic K, p Policy) *Stream[K, V] {
	return &Stream[K, V]{
		topic:  topic,
		policy: p,
		owner:  d,
		st:     p.state(),
		done:   make(chan struct{}),
	}
}

// Topic 订阅的主题
func (s *Stream[K, V]) Topic() K { return s.topic }

// Policy 通道的投递策略
func (s *Stream[K, V]) Policy() Policy { return s.policy }

// Done 通道终止（关闭或失败）时关闭
func (s *Stream[K, V]) Done() <-chan struct{} { return s.done }

// Err 失败原因；正常运行或 Close 后为 nil
func (s *Stream[K, V]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == ErrClosed {
		return nil
	}
	return s.err
}

// Pending 当前保留（尚未投递）的值个数
func (s *Stream[K, V]) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.size()
}

// Waiting 当前挂起在 Next 上的消费者个数
func (s *Stream[K, V]) Waiting() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waiters)
}

// Next 阻塞直到有值、通道终止或 ctx 取消
//
// 通道失败时先交付已保留的值，之后返回失败原因；Close 后返回 ErrClosed。
// ctx 取消与值交付竞争时，已交付的值总会被返回，不会丢失。
func (s *Stream[K, V]) Next(ctx context.Context) (V, error) {
	var zero V
	s.mu.Lock()
	if v, ok := s.st.poll(); ok {
		s.mu.Unlock()
		s.owner.onPoll(1)
		return v.(V), nil
	}
	if s.closed {
		err := s.err
		s.mu.Unlock()
		return zero, err
	}
	w := make(chan any, 1)
	s.waiters = append(s.waiters, w)
	s.mu.Unlock()

	select {
	case v := <-w:
		return v.(V), nil
	case <-s.done:
		// 终止前的交付都在锁内完成，此处非阻塞检查即可
		select {
		case v := <-w:
			return v.(V), nil
		default:
		}
		s.mu.Lock()
		err := s.err
		s.mu.Unlock()
		return zero, err
	case <-ctx.Done():
		if s.unpark(w) {
			return zero, ctx.Err()
		}
		// 已被交付或通道已终止
		select {
		case v := <-w:
			return v.(V), nil
		case <-s.done:
			select {
			case v := <-w:
				return v.(V), nil
			default:
				return zero, ctx.Err()
			}
		}
	}
}

// TryNext 非阻塞取值
func (s *Stream[K, V]) TryNext() (V, bool) {
	s.mu.Lock()
	v, ok := s.st.poll()
	s.mu.Unlock()
	if !ok {
		var zero V
		return zero, false
	}
	s.owner.onPoll(1)
	return v.(V), true
}

// Close 退役通道；保留的值被丢弃，挂起的 Next 返回 ErrClosed
// 已因溢出失败的通道仍返回原失败原因。
func (s *Stream[K, V]) Close() {
	if s.terminate(ErrClosed) {
		s.owner.retire(s)
	}
}

// live 通道仍可接收
func (s *Stream[K, V]) live() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// unpark 从等待队列移除 w；已被交付时返回 false
func (s *Stream[K, V]) unpark(w chan any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, x := range s.waiters {
		if x == w {
			s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
			return true
		}
	}
	return false
}

// offer 生产者路径：交给挂起的消费者或交由策略处置
func (s *Stream[K, V]) offer(v V) (res offerResult) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return offerResult{closed: true}
	}
	if len(s.waiters) > 0 && s.st.size() == 0 {
		w := s.waiters[0]
		s.waiters[0] = nil
		s.waiters = s.waiters[1:]
		w <- v
		s.mu.Unlock()
		return offerResult{delivered: true}
	}
	before := s.st.size()
	dropped, fail := s.st.offer(v)
	res = offerResult{dropped: dropped, retained: s.st.size() - before}
	if fail {
		res.failed = true
		s.closed = true
		s.err = &OverflowError{Topic: s.topic, Policy: s.policy.String()}
		close(s.done)
	}
	s.mu.Unlock()
	return res
}

// terminate 标记终止并唤醒挂起的消费者，丢弃保留的值；已终止时返回 false
//
// 因溢出失败的通道仍保留着待交付的值，再次 terminate 时同样丢弃。
func (s *Stream[K, V]) terminate(err error) bool {
	s.mu.Lock()
	n := s.st.size()
	s.st.reset()
	first := !s.closed
	if first {
		s.closed = true
		s.err = err
		s.waiters = nil
		close(s.done)
	}
	s.mu.Unlock()
	s.owner.onDiscard(n)
	return first
}

type offerResult struct {
	closed    bool
	delivered bool
	failed    bool
	dropped   int
	retained  int
}
