// Package codec 提供平台感知的二进制编解码器
//
// 分层：
//   - Codec[T]：值 ↔ 字节序列的双向映射，绑定一个 platform.Profile
//   - Fixed[T]：额外保证编码长度恒为 Width()
//   - 原语：Short/Int/Long/Float/Double/Char（按 profile 宽度收窄/展宽）
//   - 组合：List（同构定长）、Pair（异构二元组）、Null（零字节）、Raw（透传）
//   - 改造：Stack / Map 通过 bijection 把 Codec[T] 变成 Codec[R]
//   - Split：标识符前缀约定（前 k 字节为类型标识，余下为负载）
//
// 所有 Codec 构造后不可变；Retarget/On 返回新值，原值不受影响，
// 因此同一基础 codec 派生出的不同 profile 版本可以并发使用。
//
// 注意：当 profile 字节序与宿主机不同时，Decode 会就地反转输入字节（破坏性），
// 调用方不得在并发解码之间共享同一输入缓冲区。
package codec

import (
	"github.com/uniyakcom/wirebeat/platform"
)

// Codec 值 ↔ 字节序列双向映射
type Codec[T any] interface {
	// Encode 编码为字节
	Encode(v T) ([]byte, error)

	// Decode 从字节解码（可能就地反转 b）
	Decode(b []byte) (T, error)

	// Platform 当前绑定的 profile
	Platform() platform.Profile

	// Retarget 返回绑定到 p 的新 codec
	Retarget(p platform.Profile) Codec[T]
}

// ─── Fixed ───────────────────────────────────────────────────────────

// Fixed 定长 codec（不可变值类型）
//
// 内部逻辑全部以 profile 为参数，Retarget 只替换 profile 字段。
type Fixed[T any] struct {
	profile platform.Profile
	name    string
	width   func(p platform.Profile) int
	enc     func(p platform.Profile, v T, dst []byte) error
	dec     func(p platform.Profile, src []byte) (T, error)
	// anyInput 解码时不校验长度（仅 Null 及其 Stack 派生）
	anyInput bool
}

// NewFixed 由纯逻辑创建定长 codec
//   - width: 给定 profile 下的编码长度
//   - enc: 把 v 写入恰好 width 字节的 dst
//   - dec: 从恰好 width 字节的 src 解出值
func NewFixed[T any](
	p platform.Profile,
	name string,
	width func(p platform.Profile) int,
	enc func(p platform.Profile, v T, dst []byte) error,
	dec func(p platform.Profile, src []byte) (T, error),
) Fixed[T] {
	return Fixed[T]{profile: p, name: name, width: width, enc: enc, dec: dec}
}

// Width 编码长度（字节）
func (c Fixed[T]) Width() int { return c.width(c.profile) }

// Platform 当前 profile
func (c Fixed[T]) Platform() platform.Profile { return c.profile }

// Name 调试名称
func (c Fixed[T]) Name() string { return c.name }

// On 返回绑定到 p 的副本（保持 Fixed 类型）
func (c Fixed[T]) On(p platform.Profile) Fixed[T] {
	c.profile = p
	return c
}

// Retarget 实现 Codec 接口
func (c Fixed[T]) Retarget(p platform.Profile) Codec[T] { return c.On(p) }

// Encode 编码，返回恰好 Width() 字节
func (c Fixed[T]) Encode(v T) ([]byte, error) {
	buf := make([]byte, c.width(c.profile))
	if err := c.enc(c.profile, v, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// EncodeTo 编码到 dst（len(dst) 必须等于 Width()）
func (c Fixed[T]) EncodeTo(dst []byte, v T) error {
	if w := c.width(c.profile); len(dst) != w {
		return malformed("%s: destination is %d bytes, want %d", c.name, len(dst), w)
	}
	return c.enc(c.profile, v, dst)
}

// Decode 解码；长度不等于 Width() 时返回 ErrMalformed
// Null 忽略输入，其余宽度为 0 的 codec 只接受空输入。
func (c Fixed[T]) Decode(b []byte) (T, error) {
	w := c.width(c.profile)
	if !c.anyInput && len(b) != w {
		var zero T
		return zero, malformed("%s: got %d bytes, want %d", c.name, len(b), w)
	}
	return c.dec(c.profile, b)
}

// ─── Variable ────────────────────────────────────────────────────────

// funcCodec 变长 codec（Split 与 Map 的通用载体）
type funcCodec[T any] struct {
	profile platform.Profile
	enc     func(p platform.Profile, v T) ([]byte, error)
	dec     func(p platform.Profile, b []byte) (T, error)
}

// NewCodec 由纯逻辑创建变长 codec
func NewCodec[T any](
	p platform.Profile,
	enc func(p platform.Profile, v T) ([]byte, error),
	dec func(p platform.Profile, b []byte) (T, error),
) Codec[T] {
	return funcCodec[T]{profile: p, enc: enc, dec: dec}
}

func (c funcCodec[T]) Encode(v T) ([]byte, error) { return c.enc(c.profile, v) }
func (c funcCodec[T]) Decode(b []byte) (T, error) { return c.dec(c.profile, b) }
func (c funcCodec[T]) Platform() platform.Profile { return c.profile }
func (c funcCodec[T]) Retarget(p platform.Profile) Codec[T] {
	c.profile = p
	return c
}
