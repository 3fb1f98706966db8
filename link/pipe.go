package link

import (
	"context"
	"sync"
)

// pipeEnd 内存端口的一端
type pipeEnd struct {
	in   chan []byte
	out  chan []byte
	done chan struct{}
	once *sync.Once
}

// Pipe 返回一对相连的内存端口（测试与本地回环使用）
//
// 写入会复制字节，对端解码时的就地反转不会影响写方的缓冲区。
// 任一端 Close 后两端都关闭。
func Pipe() (Port, Port) {
	ab := make(chan []byte, 64)
	ba := make(chan []byte, 64)
	done := make(chan struct{})
	once := &sync.Once{}
	return &pipeEnd{in: ba, out: ab, done: done, once: once},
		&pipeEnd{in: ab, out: ba, done: done, once: once}
}

func (p *pipeEnd) Read(ctx context.Context) ([]byte, error) {
	select {
	case b := <-p.in:
		return b, nil
	case <-p.done:
		// 关闭前已写入的消息仍可读出
		select {
		case b := <-p.in:
			return b, nil
		default:
			return nil, ErrPortClosed
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *pipeEnd) Write(ctx context.Context, b []byte) error {
	select {
	case <-p.done:
		return ErrPortClosed
	default:
	}
	cp := append([]byte(nil), b...)
	select {
	case p.out <- cp:
		return nil
	case <-p.done:
		return ErrPortClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *pipeEnd) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}
