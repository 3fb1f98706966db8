package codec

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/uniyakcom/wirebeat/bijection"
	"github.com/uniyakcom/wirebeat/platform"
)

// TestListRoundTrip 测试 [3,1,4] 在 2 字节大端下的往返
func TestListRoundTrip(t *testing.T) {
	c := List(Int(be16), 3)
	if c.Width() != 6 {
		t.Fatalf("Width() = %d, want 6", c.Width())
	}
	b, err := c.Encode([]int32{3, 1, 4})
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0, 3, 0, 1, 0, 4}
	if !bytes.Equal(b, want) {
		t.Fatalf("Encode = %x, want %x", b, want)
	}
	got, err := c.Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []int32{3, 1, 4}) {
		t.Errorf("Decode = %v", got)
	}
}

// TestListWrongCount 测试元素数量不符
func TestListWrongCount(t *testing.T) {
	c := List(Int(be16), 3)
	for _, in := range [][]int32{nil, {1, 2}, {1, 2, 3, 4}} {
		if _, err := c.Encode(in); !errors.Is(err, ErrMalformed) {
			t.Errorf("Encode(%v): expected ErrMalformed, got %v", in, err)
		}
	}
	if _, err := c.Decode([]byte{0, 1, 0, 2}); !errors.Is(err, ErrMalformed) {
		t.Errorf("Decode short input: expected ErrMalformed, got %v", err)
	}
}

// TestListRetarget 测试列表随 profile 重定向元素宽度
func TestListRetarget(t *testing.T) {
	c := List(Short(platform.Native()), 4)
	if c.Width() != 8 {
		t.Fatalf("Width() = %d", c.Width())
	}
	n := List(Int(platform.Native()), 2)
	if n.Width() != 8 || n.On(platform.AVR).Width() != 4 {
		t.Fatalf("retargeted width = %d", n.On(platform.AVR).Width())
	}
}

type motor struct {
	Speed int16
	Mode  rune
}

func motorBijection() bijection.Bijection[motor, Tuple[int16, rune]] {
	return bijection.New(
		func(m motor) Tuple[int16, rune] { return Tuple[int16, rune]{First: m.Speed, Second: m.Mode} },
		func(t Tuple[int16, rune]) motor { return motor{Speed: t.First, Mode: t.Second} },
	)
}

// TestPair 测试异构二元组
func TestPair(t *testing.T) {
	c := Pair(Short(be16), Char(be16), motorBijection())
	if c.Width() != 3 {
		t.Fatalf("Width() = %d, want 3", c.Width())
	}
	b, err := c.Encode(motor{Speed: -3, Mode: 'f'})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, []byte{0xff, 0xfd, 'f'}) {
		t.Fatalf("Encode = %x", b)
	}
	got, err := c.Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	if got != (motor{Speed: -3, Mode: 'f'}) {
		t.Errorf("Decode = %+v", got)
	}
}

// TestNull 测试零字节 codec
func TestNull(t *testing.T) {
	calls := 0
	c := Null(platform.Native(), func() motor {
		calls++
		return motor{Mode: 'n'}
	})
	if c.Width() != 0 {
		t.Fatalf("Width() = %d", c.Width())
	}
	b, err := c.Encode(motor{Speed: 99})
	if err != nil || len(b) != 0 {
		t.Fatalf("Encode = %x, %v", b, err)
	}
	v, err := c.Decode([]byte{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if v.Mode != 'n' || calls != 1 {
		t.Errorf("Decode = %+v, factory calls %d", v, calls)
	}
}

// TestZeroWidthRejectsInput 测试非 Null 的零宽 codec 只接受空输入
func TestZeroWidthRejectsInput(t *testing.T) {
	empty := NewFixed(platform.Native(), "empty",
		func(platform.Profile) int { return 0 },
		func(platform.Profile, struct{}, []byte) error { return nil },
		func(platform.Profile, []byte) (struct{}, error) { return struct{}{}, nil },
	)
	if _, err := empty.Decode(nil); err != nil {
		t.Fatalf("Decode(nil) = %v", err)
	}
	if _, err := empty.Decode([]byte{0xff}); !errors.Is(err, ErrMalformed) {
		t.Errorf("Decode(1 byte) = %v, want ErrMalformed", err)
	}

	// Null 经 Stack 改造后仍忽略输入
	ping := Stack(Null(platform.Native(), func() int { return 7 }), bijection.New(
		func(v string) int { return len(v) },
		func(int) string { return "ping" },
	))
	v, err := ping.Decode([]byte{1, 2})
	if err != nil || v != "ping" {
		t.Errorf("stacked Null Decode = %q, %v", v, err)
	}
}

// TestStackKeepsWidth 测试 Stack 保留宽度并按镜像顺序执行
func TestStackKeepsWidth(t *testing.T) {
	base := Int(be16)
	var order []string
	b := bijection.New(
		func(v int) int32 { order = append(order, "bij-enc"); return int32(v) },
		func(v int32) int { order = append(order, "bij-dec"); return int(v) },
	)
	c := Stack(base, b)
	if c.Width() != base.Width() {
		t.Fatalf("Width() = %d, want %d", c.Width(), base.Width())
	}
	raw, err := c.Encode(513)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw, []byte{0x02, 0x01}) {
		t.Fatalf("Encode = %x", raw)
	}
	v, err := c.Decode(raw)
	if err != nil || v != 513 {
		t.Fatalf("Decode = %d, %v", v, err)
	}
	if !reflect.DeepEqual(order, []string{"bij-enc", "bij-dec"}) {
		t.Errorf("order = %v", order)
	}
	if c.On(platform.Native()).Width() != 4 {
		t.Error("stacked codec did not follow retarget")
	}
}

// TestRaw 测试透传字段
func TestRaw(t *testing.T) {
	c := Raw(be16, 3)
	b, err := c.Encode([]byte{1, 2, 3})
	if err != nil || !bytes.Equal(b, []byte{1, 2, 3}) {
		t.Fatalf("Encode = %x, %v", b, err)
	}
	v, err := c.Decode(b)
	if err != nil || !bytes.Equal(v, []byte{1, 2, 3}) {
		t.Fatalf("Decode = %x, %v", v, err)
	}
	if _, err := c.Encode([]byte{1}); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

// TestFixedLengthInvariant 测试所有定长 codec 的长度不变量
func TestFixedLengthInvariant(t *testing.T) {
	p := platform.AVR
	check := func(name string, width int, b []byte, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(b) != width {
			t.Errorf("%s: len = %d, Width() = %d", name, len(b), width)
		}
	}
	s := Short(p)
	b, err := s.Encode(-1)
	check("short", s.Width(), b, err)
	l := List(Long(p), 5)
	b, err = l.Encode([]int64{1, 2, 3, 4, 5})
	check("list", l.Width(), b, err)
	pr := PairOf(Float(p), Double(p))
	b, err = pr.Encode(Tuple[float32, float64]{First: 1, Second: 2})
	check("pair", pr.Width(), b, err)
	n := Null(p, func() int { return 0 })
	b, err = n.Encode(5)
	check("null", n.Width(), b, err)
}

// TestMap 测试变长 codec 的 bijection 改造
func TestMap(t *testing.T) {
	split := NewSplit(Char(be16))
	type tagged struct {
		Tag  string
		Body []byte
	}
	c := Map[tagged, Frame[rune]](split, bijection.New(
		func(v tagged) Frame[rune] { return Frame[rune]{ID: rune(v.Tag[0]), Payload: v.Body} },
		func(f Frame[rune]) tagged { return tagged{Tag: string(f.ID), Body: f.Payload} },
	))
	b, err := c.Encode(tagged{Tag: "x", Body: []byte{9}})
	if err != nil || !bytes.Equal(b, []byte{'x', 9}) {
		t.Fatalf("Encode = %x, %v", b, err)
	}
	v, err := c.Decode(b)
	if err != nil || v.Tag != "x" || !bytes.Equal(v.Body, []byte{9}) {
		t.Fatalf("Decode = %+v, %v", v, err)
	}
	if c.Retarget(platform.Native()).Platform().Name != "native" {
		t.Error("Map.Retarget did not retarget inner codec")
	}
}
