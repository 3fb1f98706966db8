package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownIdentifier 线上标识符未注册
	ErrUnknownIdentifier = errors.New("registry: unknown identifier")

	// ErrUnregisteredType 待编码消息的类型未注册
	ErrUnregisteredType = errors.New("registry: unregistered type")
)

// UnknownIDError 携带未知标识符
type UnknownIDError struct {
	ID any
}

func (e *UnknownIDError) Error() string {
	if r, ok := e.ID.(rune); ok {
		return fmt.Sprintf("registry: unknown identifier %q", r)
	}
	return fmt.Sprintf("registry: unknown identifier %v", e.ID)
}

// Unwrap 使 errors.Is(err, ErrUnknownIdentifier) 成立
func (e *UnknownIDError) Unwrap() error { return ErrUnknownIdentifier }
