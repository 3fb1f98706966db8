package message_test

import (
	"errors"
	"testing"

	"github.com/uniyakcom/wirebeat/codec"
	"github.com/uniyakcom/wirebeat/message"
	"github.com/uniyakcom/wirebeat/platform"
)

func TestNewTagsType(t *testing.T) {
	rng := message.NewType[int32]("range", codec.Int(platform.AVR))
	m := rng.New(1200)

	if m.Type() != message.Type(rng) {
		t.Fatalf("Type() = %v, want range", m.Type())
	}
	if m.IsZero() {
		t.Error("tagged message should not be zero")
	}
	if m.Time().IsZero() {
		t.Error("Time() should be set at construction")
	}
	v, err := rng.Value(m)
	if err != nil || v != 1200 {
		t.Errorf("Value() = %d, %v; want 1200", v, err)
	}
	if got := m.String(); got != "range{1200}" {
		t.Errorf("String() = %q", got)
	}
}

func TestTypeIdentityIsPointer(t *testing.T) {
	a := message.NewType[int32]("x", codec.Int(platform.AVR))
	b := message.NewType[int32]("x", codec.Int(platform.AVR))

	_, err := b.Value(a.New(1))
	if !errors.Is(err, message.ErrTypeMismatch) {
		t.Fatalf("same-name types must be distinct, got err=%v", err)
	}
	var me *message.MismatchError
	if !errors.As(err, &me) || me.Want != "x" || me.Got != "x" {
		t.Errorf("MismatchError = %+v", me)
	}
}

func TestZeroMessage(t *testing.T) {
	var m message.Message
	if !m.IsZero() || m.Type() != nil {
		t.Fatal("zero Message should be untyped")
	}
	rng := message.NewType[int32]("range", codec.Int(platform.AVR))
	if _, err := rng.Encode(m); !errors.Is(err, message.ErrUntyped) {
		t.Errorf("Encode(zero) err = %v, want ErrUntyped", err)
	}
	if m.String() != "<untyped>" {
		t.Errorf("String() = %q", m.String())
	}
}

func TestEncodeDecode(t *testing.T) {
	be := platform.Network16
	rng := message.NewType[int32]("range", codec.Int(be))

	b, err := rng.Encode(rng.New(7))
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 2 || b[0] != 0x00 || b[1] != 0x07 {
		t.Fatalf("Encode = %x, want 0007", b)
	}
	m, err := rng.Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := message.As[int32](m); v != 7 {
		t.Errorf("decoded = %v, want 7", m.Value())
	}
	if m.Type() != message.Type(rng) {
		t.Error("decoded message must carry the decoding type")
	}
}

func TestRetargetKeepsIdentity(t *testing.T) {
	rng := message.NewType[int32]("range", codec.Int(platform.Native()))
	wire := rng.Retarget(platform.Network16)

	if wire.Platform() != platform.Network16 {
		t.Errorf("Platform() = %v", wire.Platform())
	}
	if rng.Platform() != platform.Native() {
		t.Error("Retarget must not mutate the original type")
	}

	b, err := wire.Encode(rng.New(258))
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 2 || b[0] != 0x01 || b[1] != 0x02 {
		t.Fatalf("Encode = %x, want 0102", b)
	}
	m, err := wire.Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	if m.Type() != message.Type(rng) {
		t.Error("retargeted view must tag messages with the same type")
	}
	if v, _ := rng.Value(m); v != 258 {
		t.Errorf("Value = %d, want 258", v)
	}
}

func TestEncodeForeignMessage(t *testing.T) {
	rng := message.NewType[int32]("range", codec.Int(platform.AVR))
	other := message.NewType[rune]("label", codec.Char(platform.AVR))

	if _, err := rng.Encode(other.New('a')); !errors.Is(err, message.ErrTypeMismatch) {
		t.Errorf("err = %v, want ErrTypeMismatch", err)
	}
}

func TestDecodeMalformed(t *testing.T) {
	rng := message.NewType[int32]("range", codec.Int(platform.AVR))
	if _, err := rng.Decode([]byte{1, 2, 3}); !errors.Is(err, codec.ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestTopic(t *testing.T) {
	rng := message.NewType[int32]("range", codec.Int(platform.AVR))
	if message.Topic(rng.New(1)) != message.Type(rng) {
		t.Error("Topic should return the message type")
	}
	if _, ok := message.As[string](rng.New(1)); ok {
		t.Error("As[string] on int32 content should fail")
	}
}

func TestDefineInfersFixed(t *testing.T) {
	lbl := message.Define("label", codec.Char(platform.AVR))
	b, err := lbl.Encode(lbl.New('z'))
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 1 || b[0] != 'z' {
		t.Errorf("Encode = %x, want 7a", b)
	}
}
