package message

import (
	"errors"
	"fmt"
)

var (
	// ErrUntyped 零值 Message（没有 Type）
	ErrUntyped = errors.New("message: untyped message")

	// ErrTypeMismatch 消息类型与操作的 MessageType 不符
	ErrTypeMismatch = errors.New("message: type mismatch")
)

// MismatchError 携带期望与实际类型名
type MismatchError struct {
	Want string
	Got  string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("message: type mismatch: want %s, got %s", e.Want, e.Got)
}

// Unwrap 使 errors.Is(err, ErrTypeMismatch) 成立
func (e *MismatchError) Unwrap() error { return ErrTypeMismatch }
