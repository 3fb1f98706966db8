package platform

import (
	"sort"
	"sync"
)

// ═══════════════════════════════════════════════════════════════════
// 内置设备 Profile
// ═══════════════════════════════════════════════════════════════════

// AVR 8 位 AVR（Arduino Uno/Mega）：int 2 字节，double 与 float 同为 4 字节
var AVR = Profile{
	Name:   "avr",
	Order:  LittleEndian,
	Short:  2,
	Int:    2,
	Long:   4,
	Float:  4,
	Double: 4,
	Char:   1,
}

// CortexM 32 位 ARM Cortex-M（Arduino Due/Zero、STM32）
var CortexM = Profile{
	Name:   "cortex-m",
	Order:  LittleEndian,
	Short:  2,
	Int:    4,
	Long:   4,
	Float:  4,
	Double: 8,
	Char:   1,
}

// Network16 大端 16 位设备（网络序外设、部分 DSP）
var Network16 = Profile{
	Name:   "be16",
	Order:  BigEndian,
	Short:  2,
	Int:    2,
	Long:   4,
	Float:  4,
	Double: 8,
	Char:   1,
}

var (
	presetsMu sync.RWMutex
	presets   = map[string]Profile{
		"avr":      AVR,
		"cortex-m": CortexM,
		"be16":     Network16,
	}
)

// Lookup 按名称查找 profile（"native" 总是可用）
func Lookup(name string) (Profile, bool) {
	if name == "native" {
		return Native(), true
	}
	presetsMu.RLock()
	defer presetsMu.RUnlock()
	p, ok := presets[name]
	return p, ok
}

// Register 注册（或覆盖）命名 profile，先校验
func Register(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	presetsMu.Lock()
	presets[p.Name] = p
	presetsMu.Unlock()
	return nil
}

// Names 返回所有已知 profile 名称（含 native，已排序）
func Names() []string {
	presetsMu.RLock()
	names := make([]string, 0, len(presets)+1)
	for k := range presets {
		names = append(names, k)
	}
	presetsMu.RUnlock()
	names = append(names, "native")
	sort.Strings(names)
	return names
}
