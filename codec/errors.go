package codec

import (
	"errors"
	"fmt"

	"github.com/uniyakcom/wirebeat/platform"
)

// ErrMalformed 输入字节或值的形状与 codec 不符（长度错误、元素数错误等）
// 本地不做恢复，总是返回给调用方。
var ErrMalformed = errors.New("codec: malformed payload")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// tooWide 未经校验的 profile 声明了宽于原生的宽度
func tooWide(name string, width, native int) error {
	return fmt.Errorf("codec: %s width %d exceeds native %d: %w", name, width, native, platform.ErrUnsupportedWidth)
}
