package codec

import (
	"github.com/uniyakcom/wirebeat/bijection"
	"github.com/uniyakcom/wirebeat/platform"
)

// Stack 用 bijection 把 Fixed[T] 改造成 Fixed[R]，宽度不变
//   - Encode: b.Encode 先于 c 的编码
//   - Decode: c 的解码先于 b.Decode（严格镜像）
func Stack[R, T any](c Fixed[T], b bijection.Bijection[R, T]) Fixed[R] {
	return Fixed[R]{
		profile: c.profile,
		name:    c.name,
		width:   c.width,
		enc: func(p platform.Profile, v R, dst []byte) error {
			return c.enc(p, b.Encode(v), dst)
		},
		dec: func(p platform.Profile, src []byte) (R, error) {
			t, err := c.dec(p, src)
			if err != nil {
				var zero R
				return zero, err
			}
			return b.Decode(t), nil
		},
		anyInput: c.anyInput,
	}
}

// Map 变长版本的 Stack
func Map[R, T any](c Codec[T], b bijection.Bijection[R, T]) Codec[R] {
	return mapped[R, T]{inner: c, b: b}
}

type mapped[R, T any] struct {
	inner Codec[T]
	b     bijection.Bijection[R, T]
}

func (m mapped[R, T]) Encode(v R) ([]byte, error) { return m.inner.Encode(m.b.Encode(v)) }

func (m mapped[R, T]) Decode(data []byte) (R, error) {
	t, err := m.inner.Decode(data)
	if err != nil {
		var zero R
		return zero, err
	}
	return m.b.Decode(t), nil
}

func (m mapped[R, T]) Platform() platform.Profile { return m.inner.Platform() }

func (m mapped[R, T]) Retarget(p platform.Profile) Codec[R] {
	return mapped[R, T]{inner: m.inner.Retarget(p), b: m.b}
}
