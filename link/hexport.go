package link

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"sync"
)

// HexPort 以十六进制文本行承载消息的端口（抓包回放、标准输入输出调试）
//
// 每行一条消息；空行与 # 开头的注释行被跳过，字节之间允许空格。
// 输入由后台 goroutine 逐行扫描，Read 可被 ctx 取消或 Close 打断；
// 被取消时已扫描的行留给下一次 Read，不会丢失。
type HexPort struct {
	r io.Reader
	w io.Writer
	c io.Closer

	scanOnce  sync.Once
	lines     chan scanned
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error

	mu     sync.Mutex // 保护 line 与写出
	line   int
	closed bool
}

// scanned 一行原始文本，或扫描结束的原因
type scanned struct {
	text string
	err  error
}

// NewHexPort 创建端口；r 或 w 为 nil 时对应方向不可用
func NewHexPort(r io.Reader, w io.Writer) *HexPort {
	p := &HexPort{r: r, w: w, done: make(chan struct{})}
	if c, ok := r.(io.Closer); ok {
		p.c = c
	}
	return p
}

// Line 最近读取的行号（从 1 开始）
func (p *HexPort) Line() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.line
}

// scan 后台扫描；结束时发送一次 io.EOF 或扫描错误，然后关闭 lines
func (p *HexPort) scan() {
	defer close(p.lines)
	sc := bufio.NewScanner(p.r)
	for sc.Scan() {
		select {
		case p.lines <- scanned{text: sc.Text()}:
		case <-p.done:
			return
		}
	}
	err := sc.Err()
	if err == nil {
		err = io.EOF
	}
	select {
	case p.lines <- scanned{err: err}:
	case <-p.done:
	}
}

// Read 读取下一条消息；输入结束返回 io.EOF，关闭后返回 ErrPortClosed
func (p *HexPort) Read(ctx context.Context) ([]byte, error) {
	if p.r == nil {
		return nil, io.EOF
	}
	p.scanOnce.Do(func() {
		p.lines = make(chan scanned)
		go p.scan()
	})
	for {
		select {
		case <-p.done:
			return nil, ErrPortClosed
		default:
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.done:
			return nil, ErrPortClosed
		case ln, ok := <-p.lines:
			if !ok {
				return nil, io.EOF
			}
			if ln.err != nil {
				if p.isClosed() {
					return nil, ErrPortClosed
				}
				return nil, ln.err
			}
			b, skip, err := p.parse(ln.text)
			if skip {
				continue
			}
			return b, err
		}
	}
}

// parse 解析一行；空行与注释返回 skip
func (p *HexPort) parse(raw string) (b []byte, skip bool, err error) {
	p.mu.Lock()
	p.line++
	n := p.line
	p.mu.Unlock()

	text := strings.TrimSpace(raw)
	if text == "" || strings.HasPrefix(text, "#") {
		return nil, true, nil
	}
	b, err = hex.DecodeString(strings.ReplaceAll(text, " ", ""))
	if err != nil {
		return nil, false, fmt.Errorf("line %d: %w", n, err)
	}
	return b, false, nil
}

func (p *HexPort) isClosed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Write 写出一行十六进制文本
func (p *HexPort) Write(_ context.Context, b []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPortClosed
	}
	if p.w == nil {
		return fmt.Errorf("link: hex port is read-only")
	}
	_, err := fmt.Fprintln(p.w, hex.EncodeToString(b))
	return err
}

// Close 关闭端口（及可关闭的输入）；不等待挂起的 Read
func (p *HexPort) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.done)
		if p.c != nil {
			p.closeErr = p.c.Close()
		}
	})
	return p.closeErr
}
