// Package bimap 双向一一映射（非并发安全，由调用方加锁）
package bimap

// Map K ↔ V 一一映射
type Map[K, V comparable] struct {
	fwd map[K]V
	rev map[V]K
	ord []K // 插入顺序
}

// New 创建空映射
func New[K, V comparable]() *Map[K, V] {
	return &Map[K, V]{fwd: make(map[K]V), rev: make(map[V]K)}
}

// Put 仅当 k 与 v 都未出现过时插入，返回是否插入
func (m *Map[K, V]) Put(k K, v V) bool {
	if _, ok := m.fwd[k]; ok {
		return false
	}
	if _, ok := m.rev[v]; ok {
		return false
	}
	m.fwd[k] = v
	m.rev[v] = k
	m.ord = append(m.ord, k)
	return true
}

// Value 正向查找
func (m *Map[K, V]) Value(k K) (V, bool) {
	v, ok := m.fwd[k]
	return v, ok
}

// Key 反向查找
func (m *Map[K, V]) Key(v V) (K, bool) {
	k, ok := m.rev[v]
	return k, ok
}

// Len 条目数
func (m *Map[K, V]) Len() int { return len(m.fwd) }

// Range 按插入顺序遍历，fn 返回 false 时停止
func (m *Map[K, V]) Range(fn func(k K, v V) bool) {
	for _, k := range m.ord {
		if !fn(k, m.fwd[k]) {
			return
		}
	}
}
