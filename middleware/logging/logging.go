// Package logging 提供消息处理日志中间件。
//
// 记录每条消息的处理耗时、产出数量和错误信息。
//
//	r.AddMiddleware(logging.New(log.Logger))
package logging

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/uniyakcom/wirebeat/message"
	"github.com/uniyakcom/wirebeat/router"
)

// New 创建日志中间件。
func New(logger zerolog.Logger) router.Middleware {
	return func(h router.HandlerFunc) router.HandlerFunc {
		return func(ctx context.Context, msg message.Message) ([]message.Message, error) {
			start := time.Now()

			produced, err := h(ctx, msg)

			var ev *zerolog.Event
			if err != nil {
				ev = logger.Error().Err(err)
			} else {
				ev = logger.Debug()
			}
			ev.Str("type", typeName(msg)).
				Dur("duration", time.Since(start)).
				Int("produced", len(produced))
			if err != nil {
				ev.Msg("message handler failed")
			} else {
				ev.Msg("message processed")
			}

			return produced, err
		}
	}
}

func typeName(m message.Message) string {
	if t := m.Type(); t != nil {
		return t.Name()
	}
	return ""
}
