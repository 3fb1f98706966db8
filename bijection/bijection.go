// Package bijection 提供可逆变换及其组合
//
// Bijection[A,B] 是一对互逆函数（A→B 编码，B→A 解码），
// 用于把一个 Codec[B] 改造成 Codec[A] 而不触碰字节层逻辑。
//
// 组合律：只要各组成部分满足 Decode(Encode(x)) == x，组合结果同样满足；
// 组合满足结合律：
//
//	Compose(Compose(b1, b2), b3) ≡ Compose(b1, Compose(b2, b3))
package bijection

// Bijection 可逆变换（不可变值类型，零值不可用）
type Bijection[A, B any] struct {
	enc func(A) B
	dec func(B) A
}

// New 由编码/解码函数创建原始 bijection
func New[A, B any](encode func(A) B, decode func(B) A) Bijection[A, B] {
	return Bijection[A, B]{enc: encode, dec: decode}
}

// Identity 恒等变换
func Identity[A any]() Bijection[A, A] {
	return Bijection[A, A]{
		enc: func(a A) A { return a },
		dec: func(a A) A { return a },
	}
}

// Encode A → B
func (b Bijection[A, B]) Encode(a A) B { return b.enc(a) }

// Decode B → A
func (b Bijection[A, B]) Decode(v B) A { return b.dec(v) }

// Invert 交换方向
func Invert[A, B any](b Bijection[A, B]) Bijection[B, A] {
	return Bijection[B, A]{enc: b.dec, dec: b.enc}
}

// ═══════════════════════════════════════════════════════════════════
// 组合
// ═══════════════════════════════════════════════════════════════════

// Compose 顺序组合：先 first 后 second
//   - Encode = second.Encode ∘ first.Encode
//   - Decode = first.Decode ∘ second.Decode（严格镜像）
func Compose[A, B, C any](first Bijection[A, B], second Bijection[B, C]) Bijection[A, C] {
	return Bijection[A, C]{
		enc: func(a A) C { return second.enc(first.enc(a)) },
		dec: func(c C) A { return first.dec(second.dec(c)) },
	}
}

// Stack 在 b 之前叠加 outer（R↔A 接到 A↔B 前面），得到 R↔B
func Stack[R, A, B any](b Bijection[A, B], outer Bijection[R, A]) Bijection[R, B] {
	return Compose(outer, b)
}

// Supplement 在 b 之后追加 next（A↔B 接 B↔C），得到 A↔C
func Supplement[A, B, C any](b Bijection[A, B], next Bijection[B, C]) Bijection[A, C] {
	return Compose(b, next)
}

// Wrap 两端同时包裹：outer 在前、inner 在后，得到 R↔C
func Wrap[R, A, B, C any](outer Bijection[R, A], b Bijection[A, B], inner Bijection[B, C]) Bijection[R, C] {
	return Compose(Compose(outer, b), inner)
}
