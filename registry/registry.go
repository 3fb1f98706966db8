// Package registry 标识符 ↔ 消息类型双向注册表
//
// Registry 同时是整个协议的 Codec[message.Message]：
//
//	Encode(m) = ids.Encode(IDOf(m.Type())) ++ m.Type().EncodeOn(profile, m)
//	Decode(b) = 拆出标识符 → TypeOf(id) → type.DecodeOn(profile, 负载)
//
// 注册通常在启动阶段完成，之后只读；注册与查找由一把 RWMutex 串行化，
// 并发注册同样安全。On(p) 返回共享同一绑定表的 profile 视图。
package registry

import (
	"fmt"
	"sync"

	"github.com/uniyakcom/wirebeat/codec"
	"github.com/uniyakcom/wirebeat/internal/support/bimap"
	"github.com/uniyakcom/wirebeat/message"
	"github.com/uniyakcom/wirebeat/platform"
)

// table 在所有 profile 视图之间共享
type table[I comparable] struct {
	mu sync.RWMutex
	m  *bimap.Map[I, message.Type]
}

// Registry 双向注册表（同时实现 codec.Codec[message.Message]）
type Registry[I comparable] struct {
	split codec.Split[I]
	tab   *table[I]
}

// New 以标识符 codec 创建空注册表，profile 取自 ids
func New[I comparable](ids codec.Fixed[I]) *Registry[I] {
	return &Registry[I]{
		split: codec.NewSplit(ids),
		tab:   &table[I]{m: bimap.New[I, message.Type]()},
	}
}

// Register 绑定 id ↔ t
//
// id 或 t 任一已被绑定时返回 false，注册表保持不变。
func (r *Registry[I]) Register(id I, t message.Type) bool {
	if t == nil {
		return false
	}
	r.tab.mu.Lock()
	defer r.tab.mu.Unlock()
	return r.tab.m.Put(id, t)
}

// MustRegister 同 Register，冲突时 panic（用于包级初始化）
func (r *Registry[I]) MustRegister(id I, t message.Type) {
	if !r.Register(id, t) {
		panic(fmt.Sprintf("registry: %v or %s already registered", id, t.Name()))
	}
}

// TypeOf 按标识符查找类型；未注册时 ok=false
func (r *Registry[I]) TypeOf(id I) (message.Type, bool) {
	r.tab.mu.RLock()
	defer r.tab.mu.RUnlock()
	return r.tab.m.Value(id)
}

// IDOf 按类型查找标识符；未注册时 ok=false
func (r *Registry[I]) IDOf(t message.Type) (I, bool) {
	r.tab.mu.RLock()
	defer r.tab.mu.RUnlock()
	return r.tab.m.Key(t)
}

// Len 已注册的类型数
func (r *Registry[I]) Len() int {
	r.tab.mu.RLock()
	defer r.tab.mu.RUnlock()
	return r.tab.m.Len()
}

// Binding 一条注册记录
type Binding[I comparable] struct {
	ID   I
	Type message.Type
}

// Types 按注册顺序返回所有绑定的快照
func (r *Registry[I]) Types() []Binding[I] {
	r.tab.mu.RLock()
	defer r.tab.mu.RUnlock()
	out := make([]Binding[I], 0, r.tab.m.Len())
	r.tab.m.Range(func(id I, t message.Type) bool {
		out = append(out, Binding[I]{ID: id, Type: t})
		return true
	})
	return out
}

// Identifiers 标识符 codec
func (r *Registry[I]) Identifiers() codec.Fixed[I] { return r.split.Identifiers() }

// ─── codec.Codec[message.Message] 实现 ──────────────────────────────

// Platform 当前 profile
func (r *Registry[I]) Platform() platform.Profile { return r.split.Platform() }

// On 返回绑定 p 的视图，与原注册表共享绑定
func (r *Registry[I]) On(p platform.Profile) *Registry[I] {
	return &Registry[I]{split: r.split.On(p), tab: r.tab}
}

// Retarget 实现 codec.Codec 接口
func (r *Registry[I]) Retarget(p platform.Profile) codec.Codec[message.Message] {
	return r.On(p)
}

// Encode 标识符前缀 + 负载
func (r *Registry[I]) Encode(m message.Message) ([]byte, error) {
	t := m.Type()
	if t == nil {
		return nil, message.ErrUntyped
	}
	id, ok := r.IDOf(t)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnregisteredType, t.Name())
	}
	payload, err := t.EncodeOn(r.split.Platform(), m)
	if err != nil {
		return nil, fmt.Errorf("registry: encode %s: %w", t.Name(), err)
	}
	return r.split.Encode(codec.Frame[I]{ID: id, Payload: payload})
}

// Decode 拆出标识符并交给对应类型解码
//
// 输入过短或负载畸形返回 codec.ErrMalformed；
// 标识符未注册返回 *UnknownIDError（匹配 ErrUnknownIdentifier）。
func (r *Registry[I]) Decode(b []byte) (message.Message, error) {
	f, err := r.split.Decode(b)
	if err != nil {
		return message.Message{}, err
	}
	t, ok := r.TypeOf(f.ID)
	if !ok {
		return message.Message{}, &UnknownIDError{ID: f.ID}
	}
	m, err := t.DecodeOn(r.split.Platform(), f.Payload)
	if err != nil {
		return message.Message{}, fmt.Errorf("registry: decode %s: %w", t.Name(), err)
	}
	return m, nil
}
