package bijection

// Integer 可做宽度转换的整数类型
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Convert 整数类型之间的数值转换（目标类型放不下时按 Go 转换规则截断）
func Convert[A, B Integer]() Bijection[A, B] {
	return New(
		func(a A) B { return B(a) },
		func(b B) A { return A(b) },
	)
}

// Bool 布尔 ↔ 整数（非零即真）
func Bool[N Integer]() Bijection[bool, N] {
	return New(
		func(v bool) N {
			if v {
				return 1
			}
			return 0
		},
		func(n N) bool { return n != 0 },
	)
}

// Scale 定点数：浮点 ↔ 整数（乘以 factor 后取整）
// 常用于把 0.1mm 精度的距离塞进 2 字节 int。
func Scale[N Integer](factor float64) Bijection[float64, N] {
	return New(
		func(v float64) N {
			if v < 0 {
				return N(v*factor - 0.5)
			}
			return N(v*factor + 0.5)
		},
		func(n N) float64 { return float64(n) / factor },
	)
}
