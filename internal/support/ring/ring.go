// Package ring 提供可增长环形队列（FIFO，非并发安全）
//
// 与 beat 的 SPSC ring 相同的 2 的幂容量 + mask 取模布局，
// 但由调用方加锁，且满时翻倍扩容，可作为有界或无界缓冲区。
package ring

const minSize = 8

// Ring 环形 FIFO 队列
type Ring[T any] struct {
	buf  []T
	head uint64 // 下一个出队位置
	tail uint64 // 下一个入队位置
	mask uint64
}

// New 创建队列，hint 向上取 2 的幂（最小 8）
func New[T any](hint int) *Ring[T] {
	size := uint64(minSize)
	for size < uint64(max(hint, 0)) {
		size <<= 1
	}
	return &Ring[T]{buf: make([]T, size), mask: size - 1}
}

// Len 元素个数
func (r *Ring[T]) Len() int { return int(r.tail - r.head) }

// Push 入队（满时扩容）
func (r *Ring[T]) Push(v T) {
	if r.tail-r.head == uint64(len(r.buf)) {
		r.grow()
	}
	r.buf[r.tail&r.mask] = v
	r.tail++
}

// Pop 出队；空时 ok=false
func (r *Ring[T]) Pop() (v T, ok bool) {
	if r.head == r.tail {
		return v, false
	}
	i := r.head & r.mask
	v = r.buf[i]
	var zero T
	r.buf[i] = zero // 释放引用
	r.head++
	return v, true
}

// Peek 查看队首
func (r *Ring[T]) Peek() (v T, ok bool) {
	if r.head == r.tail {
		return v, false
	}
	return r.buf[r.head&r.mask], true
}

// Reset 清空并释放所有引用
func (r *Ring[T]) Reset() {
	clear(r.buf)
	r.head, r.tail = 0, 0
}

func (r *Ring[T]) grow() {
	n := uint64(len(r.buf)) << 1
	buf := make([]T, n)
	cnt := r.tail - r.head
	for i := uint64(0); i < cnt; i++ {
		buf[i] = r.buf[(r.head+i)&r.mask]
	}
	r.buf = buf
	r.head, r.tail = 0, cnt
	r.mask = n - 1
}
