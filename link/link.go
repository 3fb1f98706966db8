// Package link 把设备端口、注册表与分发器连接起来。
//
// 读方向：Port.Read → Codec.Decode（注册表）→ Dispatcher.Dispatch
// 写方向：Send/Publish → Codec.Encode → Port.Write
//
// 端口每次读写恰好一条消息的字节（无长度前缀、无分隔符），
// 物理传输（串口、USB、无线）由 Port 实现负责。
//
//	reg := rover.Protocol(platform.AVR)
//	d := dispatch.New(message.Topic)
//	l := link.New(port, reg, d)
//	go l.Run(ctx)
//	l.Send(ctx, rover.Ping.New(struct{}{}))
package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/uniyakcom/wirebeat/codec"
	"github.com/uniyakcom/wirebeat/message"
	"github.com/uniyakcom/wirebeat/registry"
)

// ErrPortClosed 端口已关闭
var ErrPortClosed = errors.New("link: port closed")

// Port 消息粒度的字节端口
type Port interface {
	// Read 阻塞读取一条消息的字节
	Read(ctx context.Context) ([]byte, error)
	// Write 写出一条消息的字节
	Write(ctx context.Context, b []byte) error
	// Close 关闭端口，挂起的 Read/Write 返回 ErrPortClosed
	Close() error
}

// Dispatcher 解码后的消息去向
type Dispatcher interface {
	Dispatch(m message.Message) bool
}

// Stats 链路统计
type Stats struct {
	Received int64 // 成功解码并分发的消息
	Sent     int64 // 成功写出的消息
	Unrouted int64 // 解码成功但无人订阅的消息
	Unknown  int64 // 未知标识符
	Invalid  int64 // 畸形负载
}

// Option 链路选项
type Option func(*Link)

// WithLogger 日志（缺省为全局 zerolog 日志）
func WithLogger(l zerolog.Logger) Option {
	return func(k *Link) { k.log = l }
}

// WithErrorHandler 读方向解码失败回调（不中断读循环）
func WithErrorHandler(fn func(raw []byte, err error)) Option {
	return func(k *Link) { k.onError = fn }
}

// Link 设备链路
type Link struct {
	port    Port
	codec   codec.Codec[message.Message]
	d       Dispatcher
	log     zerolog.Logger
	onError func(raw []byte, err error)

	received atomic.Int64
	sent     atomic.Int64
	unrouted atomic.Int64
	unknown  atomic.Int64
	invalid  atomic.Int64
}

// New 创建链路；c 通常是绑定设备 profile 的 *registry.Registry
func New(port Port, c codec.Codec[message.Message], d Dispatcher, opts ...Option) *Link {
	l := &Link{port: port, codec: c, d: d, log: log.Logger}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.With().Str("component", "link").Str("profile", c.Platform().Name).Logger()
	return l
}

// Run 读循环，直到 ctx 取消或端口关闭/读完
//
// 单条消息解码失败只记录并计数，不中断循环；端口错误原样返回。
func (l *Link) Run(ctx context.Context) error {
	for {
		raw, err := l.port.Read(ctx)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				return nil
			case errors.Is(err, io.EOF), errors.Is(err, ErrPortClosed):
				l.log.Debug().Msg("port drained")
				return nil
			default:
				return fmt.Errorf("link: read: %w", err)
			}
		}
		l.receive(raw)
	}
}

// receive 解码并分发一条消息
func (l *Link) receive(raw []byte) {
	// Decode 可能就地反转字节，出错时记录的是原始副本
	orig := append([]byte(nil), raw...)
	m, err := l.codec.Decode(raw)
	if err != nil {
		if errors.Is(err, registry.ErrUnknownIdentifier) {
			l.unknown.Add(1)
		} else {
			l.invalid.Add(1)
		}
		l.log.Warn().Err(err).Hex("raw", orig).Msg("decode failed")
		if l.onError != nil {
			l.onError(orig, err)
		}
		return
	}
	l.received.Add(1)
	if !l.d.Dispatch(m) {
		l.unrouted.Add(1)
	}
}

// Send 编码并写出一条消息
func (l *Link) Send(ctx context.Context, m message.Message) error {
	b, err := l.codec.Encode(m)
	if err != nil {
		return err
	}
	if err := l.port.Write(ctx, b); err != nil {
		return fmt.Errorf("link: write: %w", err)
	}
	l.sent.Add(1)
	return nil
}

// Publish 依次发送，实现 router.Publisher
func (l *Link) Publish(ctx context.Context, msgs ...message.Message) error {
	for _, m := range msgs {
		if err := l.Send(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// Stats 链路统计
func (l *Link) Stats() Stats {
	return Stats{
		Received: l.received.Load(),
		Sent:     l.sent.Load(),
		Unrouted: l.unrouted.Load(),
		Unknown:  l.unknown.Load(),
		Invalid:  l.invalid.Load(),
	}
}

// Close 关闭端口
func (l *Link) Close() error {
	return l.port.Close()
}
