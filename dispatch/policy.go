package dispatch

import (
	"fmt"
	"strings"

	"github.com/uniyakcom/wirebeat/internal/support/ring"
)

// Policy 投递策略：通道的消费者当前无法接收时如何处置到达的值
//
// Policy 是不可变描述，每个新通道通过它创建独立的状态机。
type Policy interface {
	fmt.Stringer
	state() strategy
}

// strategy 通道状态机（Empty | Holding | Buffering | Reducing）
//
// 仅在通道锁内调用；offer 只在没有等待中的消费者时发生。
type strategy interface {
	// offer 接收一个值，返回被丢弃的值个数；fail=true 表示通道应以失败终止
	offer(v any) (dropped int, fail bool)
	// poll 取出下一个待投递值
	poll() (any, bool)
	// size 当前保留的值个数
	size() int
	// reset 丢弃全部保留值
	reset()
}

// Overflow 有界缓冲区溢出时的二级策略
type Overflow uint8

const (
	DropOldest  Overflow = iota // 丢弃队首，接收新值（默认）
	DropLatest                  // 丢弃新到达的值
	FailChannel                 // 以 ErrOverflow 终止通道
)

// String 溢出策略名称
func (o Overflow) String() string {
	switch o {
	case DropLatest:
		return "drop-latest"
	case FailChannel:
		return "fail"
	default:
		return "drop-oldest"
	}
}

// ═══════════════════════════════════════════════════════════════════
// 策略构造
// ═══════════════════════════════════════════════════════════════════

type ignorePolicy struct{}

// Ignore 丢弃，不保留任何状态
func Ignore() Policy { return ignorePolicy{} }

func (ignorePolicy) String() string  { return "ignore" }
func (ignorePolicy) state() strategy { return ignoreState{} }

type errorPolicy struct{}

// Error 通知消费者失败并终止通道
func Error() Policy { return errorPolicy{} }

func (errorPolicy) String() string  { return "error" }
func (errorPolicy) state() strategy { return errorState{} }

type oldestPolicy struct{}

// Oldest 保留第一个受阻的值，之后到达的值丢弃直到它被消费
func Oldest() Policy { return oldestPolicy{} }

func (oldestPolicy) String() string  { return "oldest" }
func (oldestPolicy) state() strategy { return &holdState{keepFirst: true} }

type latestPolicy struct{}

// Latest 只保留最近到达的值
func Latest() Policy { return latestPolicy{} }

func (latestPolicy) String() string  { return "latest" }
func (latestPolicy) state() strategy { return &holdState{} }

type bufferPolicy struct {
	capacity int
	overflow Overflow
}

// Buffer FIFO 缓冲；capacity <= 0 表示无界，有界时溢出交给 overflow 处理
func Buffer(capacity int, overflow Overflow) Policy {
	if capacity < 0 {
		capacity = 0
	}
	return bufferPolicy{capacity: capacity, overflow: overflow}
}

// Unbounded 无界 FIFO 缓冲
func Unbounded() Policy { return bufferPolicy{} }

func (p bufferPolicy) String() string {
	if p.capacity == 0 {
		return "buffer"
	}
	return fmt.Sprintf("buffer(%d,%s)", p.capacity, p.overflow)
}

func (p bufferPolicy) state() strategy {
	return &bufferState{q: ring.New[any](p.capacity), capacity: p.capacity, overflow: p.overflow}
}

type reducePolicy[V any] struct {
	fn func(acc, v V) V
}

// Reduce 受阻期间以 fn 折叠到达的值，消费后重置
//
// V 必须与 Dispatcher 的值类型一致，否则折叠时 panic。
func Reduce[V any](fn func(acc, v V) V) Policy {
	if fn == nil {
		panic("dispatch: nil reduce function")
	}
	return reducePolicy[V]{fn: fn}
}

func (reducePolicy[V]) String() string { return "reduce" }

func (p reducePolicy[V]) state() strategy {
	return &reduceState{fold: func(acc, v any) any { return p.fn(acc.(V), v.(V)) }}
}

type transparentPolicy struct{}

// Transparent 沿用上游已有的背压处理
//
// 单独使用时没有上游，等价于 Unbounded。
func Transparent() Policy { return transparentPolicy{} }

func (transparentPolicy) String() string  { return "transparent" }
func (transparentPolicy) state() strategy { return Unbounded().state() }

type chainPolicy struct {
	stages    []Policy
	effective Policy
}

// Chain 依次应用策略，结果仍是一个策略
//
// 非 transparent 阶段自行消化背压、从不阻塞上游，
// 因此组合后生效的是最后一个非 transparent 阶段；全部为 transparent 时等价于 Transparent。
// 该归约满足结合律：Chain(Chain(a, b), c) 与 Chain(a, Chain(b, c)) 行为一致。
func Chain(ps ...Policy) Policy {
	var stages []Policy
	for _, p := range ps {
		if c, ok := p.(chainPolicy); ok {
			stages = append(stages, c.stages...)
			continue
		}
		if p != nil {
			stages = append(stages, p)
		}
	}
	var eff Policy = transparentPolicy{}
	for _, p := range stages {
		if _, ok := p.(transparentPolicy); !ok {
			eff = p
		}
	}
	return chainPolicy{stages: stages, effective: eff}
}

// Effective 组合后实际生效的策略
func Effective(p Policy) Policy {
	if c, ok := p.(chainPolicy); ok {
		return c.effective
	}
	return p
}

func (c chainPolicy) String() string {
	names := make([]string, len(c.stages))
	for i, p := range c.stages {
		names[i] = p.String()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

func (c chainPolicy) state() strategy { return c.effective.state() }

// ═══════════════════════════════════════════════════════════════════
// 状态机实现
// ═══════════════════════════════════════════════════════════════════

type ignoreState struct{}

func (ignoreState) offer(any) (int, bool) { return 1, false }
func (ignoreState) poll() (any, bool)     { return nil, false }
func (ignoreState) size() int             { return 0 }
func (ignoreState) reset()                {}

type errorState struct{}

func (errorState) offer(any) (int, bool) { return 1, true }
func (errorState) poll() (any, bool)     { return nil, false }
func (errorState) size() int             { return 0 }
func (errorState) reset()                {}

// holdState 单值保留（OLDEST / LATEST）
type holdState struct {
	keepFirst bool
	held      bool
	v         any
}

func (s *holdState) offer(v any) (int, bool) {
	if !s.held {
		s.v, s.held = v, true
		return 0, false
	}
	if !s.keepFirst {
		s.v = v
	}
	return 1, false
}

func (s *holdState) poll() (any, bool) {
	if !s.held {
		return nil, false
	}
	v := s.v
	s.v, s.held = nil, false
	return v, true
}

func (s *holdState) size() int {
	if s.held {
		return 1
	}
	return 0
}

func (s *holdState) reset() { s.v, s.held = nil, false }

type bufferState struct {
	q        *ring.Ring[any]
	capacity int
	overflow Overflow
}

func (s *bufferState) offer(v any) (int, bool) {
	if s.capacity == 0 || s.q.Len() < s.capacity {
		s.q.Push(v)
		return 0, false
	}
	switch s.overflow {
	case DropLatest:
		return 1, false
	case FailChannel:
		return 1, true
	default:
		s.q.Pop()
		s.q.Push(v)
		return 1, false
	}
}

func (s *bufferState) poll() (any, bool) { return s.q.Pop() }
func (s *bufferState) size() int         { return s.q.Len() }
func (s *bufferState) reset()            { s.q.Reset() }

type reduceState struct {
	fold func(acc, v any) any
	acc  any
	has  bool
}

func (s *reduceState) offer(v any) (int, bool) {
	if !s.has {
		s.acc, s.has = v, true
		return 0, false
	}
	s.acc = s.fold(s.acc, v)
	return 0, false
}

func (s *reduceState) poll() (any, bool) {
	if !s.has {
		return nil, false
	}
	v := s.acc
	s.acc, s.has = nil, false
	return v, true
}

func (s *reduceState) size() int {
	if s.has {
		return 1
	}
	return 0
}

func (s *reduceState) reset() { s.acc, s.has = nil, false }
