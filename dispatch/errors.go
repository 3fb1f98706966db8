package dispatch

import (
	"errors"
	"fmt"
)

var (
	// ErrOverflow 通道因 Error 策略（或 FailChannel 溢出）终止
	ErrOverflow = errors.New("dispatch: channel overflow")

	// ErrClosed 订阅已关闭
	ErrClosed = errors.New("dispatch: stream closed")
)

// OverflowError 携带失败通道的主题
type OverflowError struct {
	Topic  any
	Policy string
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("dispatch: channel overflow on topic %v (policy %s)", e.Topic, e.Policy)
}

// Unwrap 使 errors.Is(err, ErrOverflow) 成立
func (e *OverflowError) Unwrap() error { return ErrOverflow }
