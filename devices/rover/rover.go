// Package rover 一个示例设备协议：小型差速底盘
//
// 标识符为 1 个 char（AVR 上 1 字节），负载按设备 profile 收窄：
//
//	'p' Ping     无负载（握手 / 心跳）
//	'r' Range    int，前向测距（毫米，解码为米）
//	'd' Drive    short+short，左右电机速度
//	's' Scan     3 个 int，左/中/右测距（毫米）
//	'b' Battery  float+char，电压与状态字符
//
// 消息类型在包内只定义一次；Protocol 为每个设备 profile 构造注册表视图。
package rover

import (
	"github.com/uniyakcom/wirebeat/bijection"
	"github.com/uniyakcom/wirebeat/codec"
	"github.com/uniyakcom/wirebeat/message"
	"github.com/uniyakcom/wirebeat/platform"
	"github.com/uniyakcom/wirebeat/registry"
)

// 线上标识符
const (
	IDPing    = 'p'
	IDRange   = 'r'
	IDDrive   = 'd'
	IDScan    = 's'
	IDBattery = 'b'
)

// Motion 左右电机速度（-1000..1000，千分比）
type Motion struct {
	Left  int16 `json:"left"`
	Right int16 `json:"right"`
}

// Status 电池状态
type Status struct {
	Volts float32 `json:"volts"`
	State rune    `json:"state"` // 'c' 充电中，'d' 放电，'l' 低电量
}

// Low 低电量
func (s Status) Low() bool { return s.State == 'l' }

// Sweep 左/中/右三向测距（毫米）
type Sweep = []int32

var native = platform.Native()

var (
	// Ping 无负载
	Ping = message.Define("ping", codec.Null(native, func() struct{} { return struct{}{} }))

	// Range 前向测距，线上为毫米整数，解码为米
	Range = message.Define("range", codec.Stack(codec.Int(native), bijection.Scale[int32](1000)))

	// Drive 左右电机速度
	Drive = message.Define("drive", codec.Pair(codec.Short(native), codec.Short(native),
		bijection.New(
			func(m Motion) codec.Tuple[int16, int16] { return codec.Tuple[int16, int16]{First: m.Left, Second: m.Right} },
			func(t codec.Tuple[int16, int16]) Motion { return Motion{Left: t.First, Right: t.Second} },
		)))

	// Scan 三向测距
	Scan = message.Define("scan", codec.List(codec.Int(native), 3))

	// Battery 电压 + 状态字符
	Battery = message.Define("battery", codec.Pair(codec.Float(native), codec.Char(native),
		bijection.New(
			func(s Status) codec.Tuple[float32, rune] { return codec.Tuple[float32, rune]{First: s.Volts, Second: s.State} },
			func(t codec.Tuple[float32, rune]) Status { return Status{Volts: t.First, State: t.Second} },
		)))
)

// Protocol 在设备 profile p 下构造 rover 协议注册表
func Protocol(p platform.Profile) *registry.Registry[rune] {
	r := registry.New(codec.Char(p))
	r.MustRegister(IDPing, Ping)
	r.MustRegister(IDRange, Range)
	r.MustRegister(IDDrive, Drive)
	r.MustRegister(IDScan, Scan)
	r.MustRegister(IDBattery, Battery)
	return r
}

// Stop 两轮停止
func Stop() message.Message { return Drive.New(Motion{}) }
