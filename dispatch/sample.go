package dispatch

import (
	"context"
	"time"
)

// Sample 每隔 every 从 s 非阻塞取一个值，交给 fn
//
// 定时采样叠加在投递策略之上（通常配合 Latest），不属于分发器本身。
// 直到 ctx 取消或通道终止才返回；通道失败时返回其错误。
func Sample[K comparable, V any](ctx context.Context, s *Stream[K, V], every time.Duration, fn func(V)) error {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.Done():
			// 失败时先交付保留的值
			for {
				v, ok := s.TryNext()
				if !ok {
					break
				}
				fn(v)
			}
			return s.Err()
		case <-t.C:
			if v, ok := s.TryNext(); ok {
				fn(v)
			}
		}
	}
}
