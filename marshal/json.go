package marshal

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uniyakcom/wirebeat/message"
)

// ErrUnknownType JSON 中的类型名未登记
var ErrUnknownType = errors.New("marshal: unknown message type")

// jsonEnvelope JSON 序列化信封
type jsonEnvelope struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
	Time  *time.Time      `json:"time,omitempty"`
}

// parser 可从文本构造消息的类型（*message.MessageType[T] 满足）
type parser interface {
	Parse(fill func(v any) error) (message.Message, error)
}

// JSON JSON 编解码器
//
// Marshal 对任意消息可用；Unmarshal 只认识构造时登记的类型。
type JSON struct {
	types    map[string]message.Type
	withTime bool
}

// NewJSON 登记可解析的消息类型（按 Name 索引，后登记的同名类型覆盖先前的）
func NewJSON(types ...message.Type) JSON {
	j := JSON{types: make(map[string]message.Type, len(types))}
	for _, t := range types {
		j.types[t.Name()] = t
	}
	return j
}

// WithTime 返回输出消息时间戳的副本
func (j JSON) WithTime() JSON {
	j.withTime = true
	return j
}

// Marshal 将消息序列化为 JSON。
func (j JSON) Marshal(msg message.Message) ([]byte, error) {
	if msg.IsZero() {
		return nil, message.ErrUntyped
	}
	raw, err := json.Marshal(msg.Value())
	if err != nil {
		return nil, fmt.Errorf("marshal: %s: %w", msg.Type().Name(), err)
	}
	env := jsonEnvelope{Type: msg.Type().Name(), Value: raw}
	if j.withTime {
		at := msg.Time()
		env.Time = &at
	}
	return json.Marshal(env)
}

// Unmarshal 将 JSON 反序列化为消息。
func (j JSON) Unmarshal(data []byte) (message.Message, error) {
	var env jsonEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return message.Message{}, err
	}
	t, ok := j.types[env.Type]
	if !ok {
		return message.Message{}, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	p, ok := t.(parser)
	if !ok {
		return message.Message{}, fmt.Errorf("marshal: type %s cannot be parsed", env.Type)
	}
	return p.Parse(func(v any) error {
		if len(env.Value) == 0 {
			return nil
		}
		return json.Unmarshal(env.Value, v)
	})
}
