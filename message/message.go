// Package message 提供协议消息核心类型定义。
//
// Message 是 wirebeat 的基本传输单元，在 Registry（线上编解码）与
// Dispatcher（按主题路由）之间流转。每条 Message 在构造时由唯一的 Type 标记，
// 此后不可更改；Dispatcher 以 Type 作为路由主题。
//
// MessageType[T] 是与一种消息形态一一对应的 Codec[T]：
//
//	Range := message.NewType[int32]("range", codec.Int(platform.AVR))
//	m := Range.New(1200)
//	b, _ := Range.Encode(m)
package message

import (
	"fmt"
	"time"

	"github.com/uniyakcom/wirebeat/platform"
)

// Type 消息类型（路由主题）
//
// 实现必须是可比较的（通常为指针），以便作为 map key 与注册表键使用。
type Type interface {
	// Name 类型名称（日志、JSON 渲染使用）
	Name() string

	// Platform 类型 codec 默认绑定的 profile
	Platform() platform.Profile

	// EncodeOn 在 profile p 下编码负载（不含标识符）
	EncodeOn(p platform.Profile, m Message) ([]byte, error)

	// DecodeOn 在 profile p 下解码负载（可能就地反转 b）
	DecodeOn(p platform.Profile, b []byte) (Message, error)
}

// Message 类型化消息（不可变值）
type Message struct {
	typ   Type
	value any
	at    time.Time
}

// Type 构造时确定的消息类型；零值 Message 返回 nil
func (m Message) Type() Type { return m.typ }

// Value 消息内容
func (m Message) Value() any { return m.value }

// Time 消息创建（或解码）时间
func (m Message) Time() time.Time { return m.at }

// IsZero 零值 Message（未被任何 Type 标记）
func (m Message) IsZero() bool { return m.typ == nil }

// String 调试输出，如 "range{1200}"
func (m Message) String() string {
	if m.typ == nil {
		return "<untyped>"
	}
	return fmt.Sprintf("%s{%v}", m.typ.Name(), m.value)
}

// Topic 路由主题提取函数（Dispatcher 使用）
func Topic(m Message) Type { return m.typ }

// As 取出具体类型的内容
func As[T any](m Message) (T, bool) {
	v, ok := m.value.(T)
	return v, ok
}

// newMessage 仅供 MessageType 构造
func newMessage(t Type, v any) Message {
	return Message{typ: t, value: v, at: time.Now()}
}
