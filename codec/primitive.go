package codec

import (
	"encoding/binary"
	"math"

	"github.com/uniyakcom/wirebeat/platform"
)

// ═══════════════════════════════════════════════════════════════════
// 原语 codec
//
// 所有原语共享同一算法，只有原生宽度和 get/put 不同：
//
//	encode: 按 profile 字节序写入原生宽度缓冲区 → 收窄到 profile 宽度
//	        大端保留尾部 width 字节，小端保留头部 width 字节
//	        数值超出窄宽度时静默截断（不检测溢出）
//	decode: 字节序不同则就地反转 raw → 拷入原生宽度缓冲区（宿主机字节序）
//	        有符号整数按远端宽度符号扩展 → 解析原生值
// ═══════════════════════════════════════════════════════════════════

type putFunc[T any] func(o binary.ByteOrder, buf []byte, v T)
type getFunc[T any] func(o binary.ByteOrder, buf []byte) T

func primitive[T any](
	p platform.Profile,
	name string,
	native int,
	signed bool,
	width func(platform.Profile) int,
	put putFunc[T],
	get getFunc[T],
) Fixed[T] {
	return Fixed[T]{
		profile: p,
		name:    name,
		width:   width,
		enc: func(p platform.Profile, v T, dst []byte) error {
			if len(dst) > native {
				return tooWide(name, len(dst), native)
			}
			narrow(p.Order, native, dst, func(buf []byte) { put(p.Order.Binary(), buf, v) })
			return nil
		},
		dec: func(p platform.Profile, src []byte) (T, error) {
			if len(src) > native {
				var zero T
				return zero, tooWide(name, len(src), native)
			}
			var scratch [8]byte
			buf := widen(p, native, signed, src, scratch[:native])
			return get(platform.NativeOrder().Binary(), buf), nil
		},
	}
}

// narrow 序列化到原生宽度后截取 len(dst) 字节
func narrow(order platform.ByteOrder, native int, dst []byte, fill func([]byte)) {
	var scratch [8]byte
	buf := scratch[:native]
	fill(buf)
	w := len(dst)
	if order == platform.BigEndian {
		copy(dst, buf[native-w:])
		return
	}
	copy(dst, buf[:w])
}

// widen 把远端字节（必要时就地反转）展宽到宿主机字节序的原生缓冲区
func widen(p platform.Profile, native int, signed bool, raw, buf []byte) []byte {
	if p.NeedsReversal() {
		reverse(raw)
	}
	w := len(raw)
	var pad byte
	if platform.NativeOrder() == platform.LittleEndian {
		copy(buf, raw)
		if signed && w > 0 && w < native && raw[w-1]&0x80 != 0 {
			pad = 0xff
		}
		for i := w; i < native; i++ {
			buf[i] = pad
		}
		return buf
	}
	copy(buf[native-w:], raw)
	if signed && w > 0 && w < native && raw[0]&0x80 != 0 {
		pad = 0xff
	}
	for i := 0; i < native-w; i++ {
		buf[i] = pad
	}
	return buf
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// ─── 具体原语 ────────────────────────────────────────────────────────

// Short 16 位有符号整数，远端宽度 p.Short
func Short(p platform.Profile) Fixed[int16] {
	return primitive(p, "short", platform.NativeShort, true,
		func(p platform.Profile) int { return p.Short },
		func(o binary.ByteOrder, b []byte, v int16) { o.PutUint16(b, uint16(v)) },
		func(o binary.ByteOrder, b []byte) int16 { return int16(o.Uint16(b)) },
	)
}

// Int 32 位有符号整数，远端宽度 p.Int
func Int(p platform.Profile) Fixed[int32] {
	return primitive(p, "int", platform.NativeInt, true,
		func(p platform.Profile) int { return p.Int },
		func(o binary.ByteOrder, b []byte, v int32) { o.PutUint32(b, uint32(v)) },
		func(o binary.ByteOrder, b []byte) int32 { return int32(o.Uint32(b)) },
	)
}

// Long 64 位有符号整数，远端宽度 p.Long
func Long(p platform.Profile) Fixed[int64] {
	return primitive(p, "long", platform.NativeLong, true,
		func(p platform.Profile) int { return p.Long },
		func(o binary.ByteOrder, b []byte, v int64) { o.PutUint64(b, uint64(v)) },
		func(o binary.ByteOrder, b []byte) int64 { return int64(o.Uint64(b)) },
	)
}

// Float 32 位浮点，远端宽度 p.Float
func Float(p platform.Profile) Fixed[float32] {
	return primitive(p, "float", platform.NativeFloat, false,
		func(p platform.Profile) int { return p.Float },
		func(o binary.ByteOrder, b []byte, v float32) { o.PutUint32(b, math.Float32bits(v)) },
		func(o binary.ByteOrder, b []byte) float32 { return math.Float32frombits(o.Uint32(b)) },
	)
}

// Double 64 位浮点，远端宽度 p.Double
// 与整数一样按字节收窄：远端 double 只有 4 字节（AVR）时只在宽度匹配的值上无损。
func Double(p platform.Profile) Fixed[float64] {
	return primitive(p, "double", platform.NativeDouble, false,
		func(p platform.Profile) int { return p.Double },
		func(o binary.ByteOrder, b []byte, v float64) { o.PutUint64(b, math.Float64bits(v)) },
		func(o binary.ByteOrder, b []byte) float64 { return math.Float64frombits(o.Uint64(b)) },
	)
}

// Char 字符（原生 2 字节 UTF-16 码元），远端宽度 p.Char（1 或 2）
func Char(p platform.Profile) Fixed[rune] {
	return primitive(p, "char", platform.NativeChar, false,
		func(p platform.Profile) int { return p.Char },
		func(o binary.ByteOrder, b []byte, v rune) { o.PutUint16(b, uint16(v)) },
		func(o binary.ByteOrder, b []byte) rune { return rune(o.Uint16(b)) },
	)
}
