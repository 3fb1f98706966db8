// Package marshal 提供消息的文本（JSON）渲染与解析。
//
// 线上格式由 registry 负责；这里的 JSON 形态用于日志、命令行输出与抓包标注：
//
//	{"type":"range","value":1.5}
package marshal

import (
	"github.com/uniyakcom/wirebeat/message"
)

// Marshaler 消息文本编解码器接口
type Marshaler interface {
	// Marshal 将消息序列化为字节。
	Marshal(msg message.Message) ([]byte, error)

	// Unmarshal 将字节反序列化为消息。
	Unmarshal(data []byte) (message.Message, error)
}
