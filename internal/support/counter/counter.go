// Package counter 分片计数器：写入按 goroutine 栈地址散列到独立 cache line，读取时求和
//
// 多个生产者并发 Dispatch 时，单个 atomic.Int64 会在核间来回迁移；
// 分片后各 goroutine 大多落在不同分片上。Load 不是快照，只保证最终一致。
package counter

import (
	"runtime"
	"sync/atomic"
	"unsafe"
)

const (
	minShards = 8
	maxShards = 256

	// goroutine 初始栈 8KB，右移 13 位后不同 goroutine 大概率落到不同分片
	stackShift = 13
)

type shard struct {
	n atomic.Int64
	_ [56]byte
}

// Sharded 分片计数器，零值不可用
type Sharded struct {
	shards []shard
	mask   uintptr
}

// New 分片数为 >= GOMAXPROCS 的 2 的幂，夹在 [8, 256]
func New() *Sharded {
	n := minShards
	for n < runtime.GOMAXPROCS(0) && n < maxShards {
		n <<= 1
	}
	return &Sharded{shards: make([]shard, n), mask: uintptr(n - 1)}
}

// Add 累加 delta
//
//go:nosplit
func (c *Sharded) Add(delta int64) {
	var anchor byte
	i := uintptr(unsafe.Pointer(&anchor)) >> stackShift
	c.shards[i&c.mask].n.Add(delta)
}

// Load 各分片之和
func (c *Sharded) Load() int64 {
	var sum int64
	for i := range c.shards {
		sum += c.shards[i].n.Load()
	}
	return sum
}

// Shards 分片数
func (c *Sharded) Shards() int { return len(c.shards) }
