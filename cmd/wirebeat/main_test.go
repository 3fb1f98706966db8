package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/uniyakcom/wirebeat/codec"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--log-level", "disabled"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestEncodeCommand(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--profile", "avr", "--kind", "int", "258"}, "0201"},
		{[]string{"-p", "be16", "-k", "short", "1", "2", "3"}, "000100020003"},
		{[]string{"-p", "native", "-k", "int", "--", "-1"}, "ffffffff"},
		{[]string{"-p", "avr", "-k", "char", "a"}, "61"},
		{[]string{"-p", "be16", "-k", "long", "0x10"}, "00000010"},
	}
	for _, tt := range tests {
		out, err := execute(t, append([]string{"encode"}, tt.args...)...)
		if err != nil {
			t.Fatalf("encode %v: %v", tt.args, err)
		}
		if got := strings.TrimSpace(out); got != tt.want {
			t.Errorf("encode %v = %s, want %s", tt.args, got, tt.want)
		}
	}
}

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"-p", "avr", "-k", "int", "0201"}, "258"},
		{[]string{"-p", "avr", "-k", "int", "ffff"}, "-1"},
		{[]string{"-p", "be16", "-k", "short", "0001 0002"}, "1 2"},
		{[]string{"-p", "cortex-m", "-k", "float", "0000c03f"}, "1.5"},
	}
	for _, tt := range tests {
		out, err := execute(t, append([]string{"decode"}, tt.args...)...)
		if err != nil {
			t.Fatalf("decode %v: %v", tt.args, err)
		}
		if got := strings.TrimSpace(out); got != tt.want {
			t.Errorf("decode %v = %s, want %s", tt.args, got, tt.want)
		}
	}
}

func TestCommandErrors(t *testing.T) {
	if _, err := execute(t, "decode", "-p", "avr", "-k", "int", "020103"); !errors.Is(err, codec.ErrMalformed) {
		t.Errorf("odd width: err = %v, want ErrMalformed", err)
	}
	cases := [][]string{
		{"encode", "-k", "quad", "1"},
		{"encode", "-p", "pdp11", "1"},
		{"encode", "-k", "short", "70000"},
		{"encode", "-k", "char", "ab"},
		{"decode", "zz"},
		{"--log-level", "loud", "profiles"},
	}
	for _, args := range cases {
		if _, err := execute(t, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestProfilesCommandWithConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wirebeat.toml")
	conf := "[device]\nprofile = \"tiny\"\n\n[profiles.tiny]\norder = \"big\"\nshort = 1\nint = 2\nlong = 2\nfloat = 4\ndouble = 4\nchar = 1\n"
	if err := os.WriteFile(path, []byte(conf), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "--config", path, "profiles")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"avr", "cortex-m", "be16", "native", "tiny"} {
		if !strings.Contains(out, name) {
			t.Errorf("profiles output missing %s:\n%s", name, out)
		}
	}

	// 未指定 --profile 时使用 device.profile
	out, err = execute(t, "--config", path, "encode", "-k", "int", "258")
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out); got != "0102" {
		t.Errorf("encode on tiny = %s, want 0102", got)
	}
}

func TestReplayCommand(t *testing.T) {
	capture := strings.Join([]string{
		"# rover capture, avr profile",
		"72 dc 05",
		"",
		"64 fd ff 00 01",
		"7a 00",
		"73 01 00 02 00 03 00",
	}, "\n")
	path := filepath.Join(t.TempDir(), "capture.hex")
	if err := os.WriteFile(path, []byte(capture), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "replay", "--profile", "avr", path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`{"type":"range","value":1.5}`,
		`{"type":"drive","value":{"left":-3,"right":256}}`,
		`{"type":"scan","value":[1,2,3]}`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("replay output missing %s:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "\n"); n != 3 {
		t.Errorf("replay printed %d lines, want 3:\n%s", n, out)
	}
}

func TestReplayBadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.hex")
	if err := os.WriteFile(path, []byte("72 dc 05\nnot hex\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "replay", "-p", "avr", path); err == nil {
		t.Error("expected error for malformed line")
	}
}
