package message

import (
	"github.com/uniyakcom/wirebeat/codec"
	"github.com/uniyakcom/wirebeat/platform"
)

// MessageType 与一种消息形态一一对应的类型（同时是 Codec[Message]）
//
// 类型身份是指针：同名的两个 MessageType 是不同类型。
// 重定向 profile 不产生新类型，只影响编解码（EncodeOn/DecodeOn）。
type MessageType[T any] struct {
	name  string
	codec codec.Codec[T]
}

// NewType 创建消息类型
func NewType[T any](name string, c codec.Codec[T]) *MessageType[T] {
	return &MessageType[T]{name: name, codec: c}
}

// Define 以定长 codec 创建消息类型（可推断 T）
func Define[T any](name string, c codec.Fixed[T]) *MessageType[T] {
	return NewType[T](name, c)
}

// Name 类型名称
func (t *MessageType[T]) Name() string { return t.name }

// String 同 Name
func (t *MessageType[T]) String() string { return t.name }

// Codec 底层负载 codec
func (t *MessageType[T]) Codec() codec.Codec[T] { return t.codec }

// Platform 底层 codec 的 profile
func (t *MessageType[T]) Platform() platform.Profile { return t.codec.Platform() }

// New 构造由本类型标记的消息
func (t *MessageType[T]) New(v T) Message { return newMessage(t, v) }

// Value 取出消息内容；消息不属于本类型时返回 ErrTypeMismatch
func (t *MessageType[T]) Value(m Message) (T, error) {
	var zero T
	if m.typ == nil {
		return zero, ErrUntyped
	}
	if m.typ != Type(t) {
		return zero, &MismatchError{Want: t.name, Got: m.typ.Name()}
	}
	v, ok := m.value.(T)
	if !ok {
		return zero, &MismatchError{Want: t.name, Got: m.typ.Name()}
	}
	return v, nil
}

func (t *MessageType[T]) on(p platform.Profile) codec.Codec[T] {
	if t.codec.Platform() == p {
		return t.codec
	}
	return t.codec.Retarget(p)
}

// EncodeOn 在 profile p 下编码负载
func (t *MessageType[T]) EncodeOn(p platform.Profile, m Message) ([]byte, error) {
	v, err := t.Value(m)
	if err != nil {
		return nil, err
	}
	return t.on(p).Encode(v)
}

// DecodeOn 在 profile p 下解码负载
func (t *MessageType[T]) DecodeOn(p platform.Profile, b []byte) (Message, error) {
	v, err := t.on(p).Decode(b)
	if err != nil {
		return Message{}, err
	}
	return t.New(v), nil
}

// Parse 由 fill 填充一个零值 T 后构造消息（JSON、命令行等文本输入使用）
func (t *MessageType[T]) Parse(fill func(v any) error) (Message, error) {
	var v T
	if err := fill(&v); err != nil {
		return Message{}, err
	}
	return t.New(v), nil
}

// ─── codec.Codec[Message] 实现 ───────────────────────────────────────

// Encode 在默认 profile 下编码
func (t *MessageType[T]) Encode(m Message) ([]byte, error) {
	return t.EncodeOn(t.codec.Platform(), m)
}

// Decode 在默认 profile 下解码
func (t *MessageType[T]) Decode(b []byte) (Message, error) {
	return t.DecodeOn(t.codec.Platform(), b)
}

// Retarget 返回绑定 p 的 Codec[Message] 视图（类型身份不变）
func (t *MessageType[T]) Retarget(p platform.Profile) codec.Codec[Message] {
	return bound[T]{t: t, p: p}
}

type bound[T any] struct {
	t *MessageType[T]
	p platform.Profile
}

func (b bound[T]) Encode(m Message) ([]byte, error) { return b.t.EncodeOn(b.p, m) }
func (b bound[T]) Decode(raw []byte) (Message, error) { return b.t.DecodeOn(b.p, raw) }
func (b bound[T]) Platform() platform.Profile        { return b.p }
func (b bound[T]) Retarget(p platform.Profile) codec.Codec[Message] {
	return bound[T]{t: b.t, p: p}
}
