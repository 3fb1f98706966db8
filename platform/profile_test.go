package platform

import (
	"errors"
	"testing"
)

// TestNativeProfile 测试原生 profile 宽度与字节序
func TestNativeProfile(t *testing.T) {
	n := Native()
	if n.NeedsReversal() {
		t.Fatal("native profile must never need reversal")
	}
	if n.Int != 4 || n.Short != 2 || n.Long != 8 || n.Char != 2 {
		t.Errorf("unexpected native widths: %s", n)
	}
	if err := n.Validate(); err != nil {
		t.Fatalf("native profile invalid: %v", err)
	}
}

// TestNeedsReversal 测试字节序差异检测
func TestNeedsReversal(t *testing.T) {
	foreign := Native().WithOrder(BigEndian)
	if NativeOrder() == LittleEndian && !foreign.NeedsReversal() {
		t.Error("big-endian profile on little-endian host should need reversal")
	}
	if NativeOrder() == BigEndian && foreign.NeedsReversal() {
		t.Error("big-endian profile on big-endian host should not need reversal")
	}
}

// TestValidateRejectsWide 测试宽于原生的宽度被拒绝
func TestValidateRejectsWide(t *testing.T) {
	tests := []struct {
		name string
		p    Profile
	}{
		{"int too wide", Profile{Name: "x", Short: 2, Int: 8, Long: 8, Float: 4, Double: 8, Char: 1}},
		{"zero char", Profile{Name: "x", Short: 2, Int: 4, Long: 8, Float: 4, Double: 8, Char: 0}},
		{"short too wide", Profile{Name: "x", Short: 4, Int: 4, Long: 8, Float: 4, Double: 8, Char: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if !errors.Is(err, ErrUnsupportedWidth) {
				t.Fatalf("expected ErrUnsupportedWidth, got %v", err)
			}
			var we *WidthError
			if !errors.As(err, &we) {
				t.Fatalf("expected *WidthError, got %T", err)
			}
		})
	}
}

// TestNewValidates 测试 New 走校验
func TestNewValidates(t *testing.T) {
	if _, err := New("bad", BigEndian, 2, 5, 4, 4, 8, 1); err == nil {
		t.Fatal("expected error for 5-byte int")
	}
	p, err := New("ok", BigEndian, 2, 2, 4, 4, 4, 1)
	if err != nil {
		t.Fatal(err)
	}
	if p.Order != BigEndian || p.Int != 2 {
		t.Errorf("unexpected profile %s", p)
	}
}

// TestPresets 测试内置 profile 查找
func TestPresets(t *testing.T) {
	for _, name := range []string{"avr", "cortex-m", "be16", "native"} {
		p, ok := Lookup(name)
		if !ok {
			t.Fatalf("preset %q missing", name)
		}
		if err := p.Validate(); err != nil {
			t.Errorf("preset %q invalid: %v", name, err)
		}
	}
	if _, ok := Lookup("pdp-11"); ok {
		t.Error("unexpected preset pdp-11")
	}
	names := Names()
	if len(names) < 4 {
		t.Errorf("Names() = %v", names)
	}
}

// TestRegister 测试注册自定义 profile
func TestRegister(t *testing.T) {
	p := Profile{Name: "test-mcu", Order: BigEndian, Short: 2, Int: 2, Long: 4, Float: 4, Double: 4, Char: 1}
	if err := Register(p); err != nil {
		t.Fatal(err)
	}
	got, ok := Lookup("test-mcu")
	if !ok || got != p {
		t.Fatalf("Lookup after Register = %v, %v", got, ok)
	}
	if err := Register(Profile{Name: "broken"}); err == nil {
		t.Fatal("expected validation error")
	}
}

// TestParseByteOrder 测试字节序解析
func TestParseByteOrder(t *testing.T) {
	for in, want := range map[string]ByteOrder{"big": BigEndian, "BE": BigEndian, "network": BigEndian, "little": LittleEndian, "le": LittleEndian} {
		got, err := ParseByteOrder(in)
		if err != nil || got != want {
			t.Errorf("ParseByteOrder(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseByteOrder("middle"); err == nil {
		t.Error("expected error for middle-endian")
	}
}
