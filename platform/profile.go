// Package platform 描述一台机器的基本类型宽度与字节序
//
// Profile 是编解码层的唯一参数：运行时自身有一个 Native() profile，
// 每个远端设备各有一个 profile（通常更窄，可能字节序不同）。
// Profile 为不可变值类型，可比较，可直接作为 map key。
package platform

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ByteOrder 字节序
type ByteOrder uint8

const (
	LittleEndian ByteOrder = iota // 小端（x86、AVR、Cortex-M 默认）
	BigEndian                     // 大端（网络序）
)

// String 返回字节序名称
func (o ByteOrder) String() string {
	if o == BigEndian {
		return "big"
	}
	return "little"
}

// Binary 返回对应的 encoding/binary 实现
func (o ByteOrder) Binary() binary.ByteOrder {
	if o == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// ParseByteOrder 解析字节序名称（big/be/network、little/le）
func ParseByteOrder(s string) (ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "big", "be", "big-endian", "network":
		return BigEndian, nil
	case "little", "le", "little-endian", "":
		return LittleEndian, nil
	default:
		return LittleEndian, fmt.Errorf("platform: unknown byte order %q", s)
	}
}

// MarshalText 实现 encoding.TextMarshaler（toml/yaml 配置使用）
func (o ByteOrder) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (o *ByteOrder) UnmarshalText(b []byte) error {
	v, err := ParseByteOrder(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// 运行时原生宽度（字节）
const (
	NativeShort  = 2
	NativeInt    = 4
	NativeLong   = 8
	NativeFloat  = 4
	NativeDouble = 8
	NativeChar   = 2
)

// nativeOrder 启动时探测一次
var nativeOrder = func() ByteOrder {
	if binary.NativeEndian.Uint16([]byte{1, 0}) == 1 {
		return LittleEndian
	}
	return BigEndian
}()

// NativeOrder 返回宿主机字节序
func NativeOrder() ByteOrder { return nativeOrder }

// Profile 平台描述（字段按类型宽度排列，单位：字节）
type Profile struct {
	Name   string    `toml:"name" yaml:"name"`
	Order  ByteOrder `toml:"order" yaml:"order"`
	Short  int       `toml:"short" yaml:"short"`
	Int    int       `toml:"int" yaml:"int"`
	Long   int       `toml:"long" yaml:"long"`
	Float  int       `toml:"float" yaml:"float"`
	Double int       `toml:"double" yaml:"double"`
	Char   int       `toml:"char" yaml:"char"`
}

// Native 运行时自身的 profile
func Native() Profile {
	return Profile{
		Name:   "native",
		Order:  nativeOrder,
		Short:  NativeShort,
		Int:    NativeInt,
		Long:   NativeLong,
		Float:  NativeFloat,
		Double: NativeDouble,
		Char:   NativeChar,
	}
}

// New 创建并校验 profile
func New(name string, order ByteOrder, short, integer, long, float, double, char int) (Profile, error) {
	p := Profile{
		Name:   name,
		Order:  order,
		Short:  short,
		Int:    integer,
		Long:   long,
		Float:  float,
		Double: double,
		Char:   char,
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// NeedsReversal 远端字节序与宿主机不同时为 true
func (p Profile) NeedsReversal() bool {
	return p.Order != nativeOrder
}

// WithOrder 返回仅字节序不同的副本
func (p Profile) WithOrder(o ByteOrder) Profile {
	p.Order = o
	return p
}

// Validate 校验每个宽度都在 1..原生宽度 之间
// 宽于原生宽度的远端类型不受支持，直接拒绝而不是静默解错。
func (p Profile) Validate() error {
	checks := []struct {
		name   string
		width  int
		native int
	}{
		{"short", p.Short, NativeShort},
		{"int", p.Int, NativeInt},
		{"long", p.Long, NativeLong},
		{"float", p.Float, NativeFloat},
		{"double", p.Double, NativeDouble},
		{"char", p.Char, NativeChar},
	}
	for _, c := range checks {
		if c.width < 1 || c.width > c.native {
			return &WidthError{Profile: p.Name, Kind: c.name, Width: c.width, Native: c.native}
		}
	}
	return nil
}

// String 紧凑描述，如 "avr(little 2/2/4/4/4/1)"
func (p Profile) String() string {
	return fmt.Sprintf("%s(%s %d/%d/%d/%d/%d/%d)",
		p.Name, p.Order, p.Short, p.Int, p.Long, p.Float, p.Double, p.Char)
}
