package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/uniyakcom/wirebeat/codec"
	"github.com/uniyakcom/wirebeat/platform"
)

// kind 命令行可用的原语类型：文本 ↔ 线上字节
type kind struct {
	encode func(p platform.Profile, args []string) ([]byte, error)
	decode func(p platform.Profile, b []byte) ([]string, error)
}

var kinds = map[string]kind{
	"short": primitiveKind(codec.Short, parseInt[int16](16), formatInt[int16]),
	"int":   primitiveKind(codec.Int, parseInt[int32](32), formatInt[int32]),
	"long":  primitiveKind(codec.Long, parseInt[int64](64), formatInt[int64]),
	"float": primitiveKind(codec.Float, parseFloat32, func(v float32) string {
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	}),
	"double": primitiveKind(codec.Double, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	}, func(v float64) string {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}),
	"char": primitiveKind(codec.Char, parseChar, func(r rune) string { return string(r) }),
}

func kindNames() string {
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func lookupKind(name string) (kind, error) {
	k, ok := kinds[strings.ToLower(name)]
	if !ok {
		return kind{}, fmt.Errorf("unknown kind %q (want one of %s)", name, kindNames())
	}
	return k, nil
}

// primitiveKind 一个值按原语编码，多个值按等长 List 编码
func primitiveKind[T any](
	mk func(platform.Profile) codec.Fixed[T],
	parse func(string) (T, error),
	format func(T) string,
) kind {
	return kind{
		encode: func(p platform.Profile, args []string) ([]byte, error) {
			vals := make([]T, len(args))
			for i, a := range args {
				v, err := parse(a)
				if err != nil {
					return nil, fmt.Errorf("value %d: %w", i+1, err)
				}
				vals[i] = v
			}
			c := mk(p)
			if len(vals) == 1 {
				return c.Encode(vals[0])
			}
			return codec.List(c, len(vals)).Encode(vals)
		},
		decode: func(p platform.Profile, b []byte) ([]string, error) {
			c := mk(p)
			w := c.Width()
			if len(b) == 0 || len(b)%w != 0 {
				return nil, fmt.Errorf("%w: %d bytes is not a multiple of width %d", codec.ErrMalformed, len(b), w)
			}
			vals, err := codec.List(c, len(b)/w).Decode(b)
			if err != nil {
				return nil, err
			}
			out := make([]string, len(vals))
			for i, v := range vals {
				out[i] = format(v)
			}
			return out, nil
		},
	}
}

type signed interface {
	~int16 | ~int32 | ~int64
}

func parseInt[T signed](bits int) func(string) (T, error) {
	return func(s string) (T, error) {
		v, err := strconv.ParseInt(s, 0, bits)
		return T(v), err
	}
}

func formatInt[T signed](v T) string { return strconv.FormatInt(int64(v), 10) }

func parseFloat32(s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	return float32(v), err
}

func parseChar(s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("char value %q must be a single character", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}
