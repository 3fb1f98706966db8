package codec

import (
	"fmt"

	"github.com/uniyakcom/wirebeat/bijection"
	"github.com/uniyakcom/wirebeat/platform"
)

// ═══════════════════════════════════════════════════════════════════
// 组合 codec
// ═══════════════════════════════════════════════════════════════════

// List n 个定长元素的同构列表（无长度前缀，n 为双方约定）
//   - Width = n * elem.Width()
//   - Encode: len(v) != n 时返回 ErrMalformed
//   - Decode: 切成 n 个等宽窗口分别解码
//
// n < 0 会 panic。
func List[T any](elem Fixed[T], n int) Fixed[[]T] {
	if n < 0 {
		panic("codec.List: negative element count")
	}
	name := fmt.Sprintf("list[%d]%s", n, elem.name)
	return Fixed[[]T]{
		profile: elem.profile,
		name:    name,
		width:   func(p platform.Profile) int { return n * elem.width(p) },
		enc: func(p platform.Profile, vs []T, dst []byte) error {
			if len(vs) != n {
				return malformed("%s: got %d elements, want %d", name, len(vs), n)
			}
			w := elem.width(p)
			for i, v := range vs {
				if err := elem.enc(p, v, dst[i*w:(i+1)*w]); err != nil {
					return err
				}
			}
			return nil
		},
		dec: func(p platform.Profile, src []byte) ([]T, error) {
			w := elem.width(p)
			out := make([]T, n)
			for i := range out {
				v, err := elem.dec(p, src[i*w:(i+1)*w])
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
			return out, nil
		},
	}
}

// Tuple 二元组（Pair 的线上形态）
type Tuple[A, B any] struct {
	First  A
	Second B
}

// PairOf 两个定长 codec 首尾拼接，Width = w1 + w2
func PairOf[A, B any](first Fixed[A], second Fixed[B]) Fixed[Tuple[A, B]] {
	return Fixed[Tuple[A, B]]{
		profile: first.profile,
		name:    "pair(" + first.name + "," + second.name + ")",
		width:   func(p platform.Profile) int { return first.width(p) + second.width(p) },
		enc: func(p platform.Profile, v Tuple[A, B], dst []byte) error {
			w1 := first.width(p)
			if err := first.enc(p, v.First, dst[:w1]); err != nil {
				return err
			}
			return second.enc(p, v.Second, dst[w1:])
		},
		dec: func(p platform.Profile, src []byte) (Tuple[A, B], error) {
			w1 := first.width(p)
			a, err := first.dec(p, src[:w1])
			if err != nil {
				return Tuple[A, B]{}, err
			}
			b, err := second.dec(p, src[w1:])
			if err != nil {
				return Tuple[A, B]{}, err
			}
			return Tuple[A, B]{First: a, Second: b}, nil
		},
	}
}

// Pair 拼接两个定长 codec，并用 b 把线上二元组翻译成目标类型 T
func Pair[A, B, T any](first Fixed[A], second Fixed[B], b bijection.Bijection[T, Tuple[A, B]]) Fixed[T] {
	return Stack(PairOf(first, second), b)
}

// Null 零字节 codec：编码为空，解码忽略输入并调用 factory（无负载的请求消息）
func Null[T any](p platform.Profile, factory func() T) Fixed[T] {
	return Fixed[T]{
		profile: p,
		name:    "null",
		width:   func(platform.Profile) int { return 0 },
		enc:     func(platform.Profile, T, []byte) error { return nil },
		dec: func(platform.Profile, []byte) (T, error) {
			return factory(), nil
		},
		anyInput: true,
	}
}

// Raw n 字节不透明字段（原样拷贝，不受字节序影响）
func Raw(p platform.Profile, n int) Fixed[[]byte] {
	if n < 0 {
		panic("codec.Raw: negative width")
	}
	return Fixed[[]byte]{
		profile: p,
		name:    fmt.Sprintf("raw[%d]", n),
		width:   func(platform.Profile) int { return n },
		enc: func(_ platform.Profile, v []byte, dst []byte) error {
			if len(v) != n {
				return malformed("raw[%d]: got %d bytes", n, len(v))
			}
			copy(dst, v)
			return nil
		},
		dec: func(_ platform.Profile, src []byte) ([]byte, error) {
			out := make([]byte, n)
			copy(out, src)
			return out, nil
		},
	}
}
