package dispatch

import (
	"fmt"
	"strings"
)

// ParseOverflow 解析溢出策略名称（drop-oldest / drop-latest / fail）
func ParseOverflow(s string) (Overflow, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop-oldest", "oldest":
		return DropOldest, nil
	case "drop-latest", "latest":
		return DropLatest, nil
	case "fail", "error":
		return FailChannel, nil
	default:
		return DropOldest, fmt.Errorf("dispatch: unknown overflow %q", s)
	}
}

// Parse 由配置字符串构造策略
//
// kind: ignore | error | oldest | latest | buffer | transparent，
// 多个 kind 以逗号分隔时按 Chain 组合。capacity、overflow 仅对 buffer 生效。
// reduce 需要折叠函数，只能在代码中构造。
func Parse(kind string, capacity int, overflow string) (Policy, error) {
	if strings.Contains(kind, ",") {
		var stages []Policy
		for _, k := range strings.Split(kind, ",") {
			p, err := Parse(k, capacity, overflow)
			if err != nil {
				return nil, err
			}
			stages = append(stages, p)
		}
		return Chain(stages...), nil
	}
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "ignore":
		return Ignore(), nil
	case "error":
		return Error(), nil
	case "oldest":
		return Oldest(), nil
	case "latest":
		return Latest(), nil
	case "", "buffer":
		o, err := ParseOverflow(overflow)
		if err != nil {
			return nil, err
		}
		return Buffer(capacity, o), nil
	case "transparent":
		return Transparent(), nil
	case "reduce":
		return nil, fmt.Errorf("dispatch: reduce policy needs a combiner and cannot be parsed")
	default:
		return nil, fmt.Errorf("dispatch: unknown policy %q", kind)
	}
}
