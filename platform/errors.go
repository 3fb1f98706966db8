package platform

import (
	"errors"
	"fmt"
)

// ErrUnsupportedWidth 远端宽度超出原生宽度或非正
var ErrUnsupportedWidth = errors.New("platform: unsupported primitive width")

// ErrUnknownProfile 未知 profile 名称
var ErrUnknownProfile = errors.New("platform: unknown profile")

// WidthError 携带出错的类型与宽度
type WidthError struct {
	Profile string
	Kind    string
	Width   int
	Native  int
}

func (e *WidthError) Error() string {
	return fmt.Sprintf("platform: profile %q: %s width %d outside 1..%d", e.Profile, e.Kind, e.Width, e.Native)
}

// Unwrap 使 errors.Is(err, ErrUnsupportedWidth) 成立
func (e *WidthError) Unwrap() error { return ErrUnsupportedWidth }
