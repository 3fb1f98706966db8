package codec

import (
	"github.com/uniyakcom/wirebeat/platform"
)

// Frame 一条线上消息：标识符 + 负载
type Frame[I any] struct {
	ID      I
	Payload []byte
}

// Split 标识符前缀约定：前 k = ids.Width() 字节为类型标识，余下为负载
//
//	Decode(b) = Frame{ids.Decode(b[:k]), b[k:]}
//	Encode(f) = ids.Encode(f.ID) ++ f.Payload
//
// 负载切片与输入共享底层数组，不做拷贝。
type Split[I any] struct {
	ids Fixed[I]
}

// NewSplit 创建标识符切分 codec
func NewSplit[I any](ids Fixed[I]) Split[I] {
	return Split[I]{ids: ids}
}

// Identifiers 标识符 codec
func (s Split[I]) Identifiers() Fixed[I] { return s.ids }

// Width 标识符宽度 k
func (s Split[I]) Width() int { return s.ids.Width() }

// Platform 当前 profile
func (s Split[I]) Platform() platform.Profile { return s.ids.profile }

// On 返回绑定到 p 的副本
func (s Split[I]) On(p platform.Profile) Split[I] { return Split[I]{ids: s.ids.On(p)} }

// Retarget 实现 Codec 接口
func (s Split[I]) Retarget(p platform.Profile) Codec[Frame[I]] { return s.On(p) }

// Encode 标识符字节 + 负载字节
func (s Split[I]) Encode(f Frame[I]) ([]byte, error) {
	k := s.ids.Width()
	out := make([]byte, k+len(f.Payload))
	if err := s.ids.enc(s.ids.profile, f.ID, out[:k]); err != nil {
		return nil, err
	}
	copy(out[k:], f.Payload)
	return out, nil
}

// Decode 拆出标识符与负载；输入短于 k 时返回 ErrMalformed
func (s Split[I]) Decode(b []byte) (Frame[I], error) {
	k := s.ids.Width()
	if len(b) < k {
		return Frame[I]{}, malformed("identifier: got %d bytes, want at least %d", len(b), k)
	}
	id, err := s.ids.Decode(b[:k])
	if err != nil {
		return Frame[I]{}, err
	}
	return Frame[I]{ID: id, Payload: b[k:]}, nil
}
