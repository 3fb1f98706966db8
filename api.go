// Package wirebeat 统一API入口
//
// 设备消息经 registry 编解码后进入按类型分主题的 Dispatcher，
// 每个主题的投递策略（Latest / Buffer / Reduce ...）决定消费者跟不上时如何处理积压。
package wirebeat

import (
	"fmt"
	"strings"

	"github.com/uniyakcom/wirebeat/codec"
	"github.com/uniyakcom/wirebeat/dispatch"
	"github.com/uniyakcom/wirebeat/message"
	"github.com/uniyakcom/wirebeat/platform"
	"github.com/uniyakcom/wirebeat/registry"
)

// Message 导出消息类型
type Message = message.Message

// Type 导出消息类型接口
type Type = message.Type

// Profile 导出平台描述
type Profile = platform.Profile

// Policy 导出投递策略
type Policy = dispatch.Policy

// Dispatcher 以消息类型为主题的分发器
type Dispatcher = dispatch.Dispatcher[message.Type, message.Message]

// Stream 单个主题的消费端
type Stream = dispatch.Stream[message.Type, message.Message]

// Stats 导出分发器统计
type Stats = dispatch.Stats

// ═══════════════════════════════════════════════════════════════════
// 第零层：New() 零配置入口
// ═══════════════════════════════════════════════════════════════════

// New 创建按消息类型分发的 Dispatcher（缺省无界缓冲，不丢消息）
//
// 用法:
//
//	d := wirebeat.New()
//	defer d.Close()
//	s := d.Subscribe(rover.Range)
func New(opts ...dispatch.Option) *Dispatcher {
	return dispatch.New(message.Topic, opts...)
}

// NewRegistry 以标识符 codec 创建类型注册表
func NewRegistry[I comparable](ids codec.Fixed[I]) *registry.Registry[I] {
	return registry.New(ids)
}

// ═══════════════════════════════════════════════════════════════════
// 第一层：ForXxx() 三大场景（推荐使用）
// ═══════════════════════════════════════════════════════════════════

// ForTelemetry 传感器读数：只保留最新值
// 用途: 测距、电压、姿态等周期上报，消费者慢时旧读数没有价值
func ForTelemetry(opts ...dispatch.Option) *Dispatcher {
	return New(append([]dispatch.Option{dispatch.WithPolicy(dispatch.Latest())}, opts...)...)
}

// ForCommands 指令与事件：无界 FIFO，逐条交付
// 用途: 握手、状态切换、用户操作，每一条都必须处理
func ForCommands(opts ...dispatch.Option) *Dispatcher {
	return New(append([]dispatch.Option{dispatch.WithPolicy(dispatch.Unbounded())}, opts...)...)
}

// ForStream 高频数据流：有界缓冲，满时丢最旧
// 用途: 扫描帧、日志行，容忍丢失但要保序
func ForStream(capacity int, opts ...dispatch.Option) *Dispatcher {
	p := dispatch.Buffer(capacity, dispatch.DropOldest)
	return New(append([]dispatch.Option{dispatch.WithPolicy(p)}, opts...)...)
}

// ═══════════════════════════════════════════════════════════════════
// 第二层：Scenario() 字符串配置
// ═══════════════════════════════════════════════════════════════════

// 预设场景的流缓冲容量
const streamCapacity = 64

// Scenario 预设场景快速创建
// name: "telemetry", "commands", "stream"；其余按策略名解析（如 "oldest"、"error,buffer"）
func Scenario(name string, opts ...dispatch.Option) (*Dispatcher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "telemetry":
		return ForTelemetry(opts...), nil
	case "commands":
		return ForCommands(opts...), nil
	case "stream":
		return ForStream(streamCapacity, opts...), nil
	}
	p, err := dispatch.Parse(name, streamCapacity, "")
	if err != nil {
		return nil, fmt.Errorf("wirebeat: scenario %q: %w", name, err)
	}
	return Option(p, opts...), nil
}

// ═══════════════════════════════════════════════════════════════════
// 第三层：Option() 完全控制
// ═══════════════════════════════════════════════════════════════════

// Option 以指定缺省策略创建 Dispatcher；p 为 nil 时为无界缓冲
func Option(p Policy, opts ...dispatch.Option) *Dispatcher {
	if p == nil {
		p = dispatch.Unbounded()
	}
	return New(append([]dispatch.Option{dispatch.WithPolicy(p)}, opts...)...)
}

// ═══════════════════════════════════════════════════════════════════
// 包级便捷 API（无界缓冲语义，零初始化）
// ═══════════════════════════════════════════════════════════════════

// defaultDispatcher 包级默认 Dispatcher，无后台 goroutine
var defaultDispatcher = ForCommands()

// Default 返回包级默认 Dispatcher
func Default() *Dispatcher {
	return defaultDispatcher
}

// Subscribe 包级订阅（同一主题返回同一 Stream）
//
// 用法:
//
//	s := wirebeat.Subscribe(rover.Range)
//	m, err := s.Next(ctx)
func Subscribe(t Type) *Stream {
	return defaultDispatcher.Subscribe(t)
}

// SubscribeWith 包级订阅并指定策略（主题已存活时沿用原策略）
func SubscribeWith(t Type, p Policy) *Stream {
	return defaultDispatcher.SubscribeWith(t, p)
}

// Dispatch 包级分发；无存活订阅者时返回 false
func Dispatch(m Message) bool {
	return defaultDispatcher.Dispatch(m)
}

// Multicast 包级分发（与 Dispatch 相同，保留多播语义的名称）
func Multicast(m Message) bool {
	return defaultDispatcher.Multicast(m)
}

// Topics 包级存活主题
func Topics() []Type {
	return defaultDispatcher.Topics()
}

// Snapshot 包级运行时统计
func Snapshot() Stats {
	return defaultDispatcher.Stats()
}
