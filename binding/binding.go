package binding

import (
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)

// Value 表示一个可替换字段：单值或有序多值。
// 同一类型也用于文本元素的 text 声明（单行或多行）。
type Value struct {
	items []string
	multi bool
}

// Single 构造单值。
func Single(s string) Value { return Value{items: []string{s}} }

// Multi 构造多值，保持给定顺序。
func Multi(ss ...string) Value {
	items := make([]string, len(ss))
	copy(items, ss)
	return Value{items: items, multi: true}
}

// IsMulti 报告是否为多值。
func (v Value) IsMulti() bool { return v.multi }

// Strings 返回值列表的副本；单值返回长度为 1 的切片。
func (v Value) Strings() []string {
	if !v.multi && len(v.items) == 0 {
		return []string{""}
	}
	out := make([]string, len(v.items))
	copy(out, v.items)
	return out
}

// Dictionary 将字段名映射到值，渲染期间只读。
type Dictionary map[string]Value

// Lookup 查找字段；缺失时按空字符串单值处理。
func (d Dictionary) Lookup(key string) Value {
	if v, ok := d[key]; ok {
		return v
	}
	return Single("")
}

// Expand 将 text 中的 {name} 占位符按 dict 展开为有序字符串序列。
//
// 扫描的是原始 text 而不是中间结果：同名占位符出现几次就处理几次。
// 多值字段每出现一次都会把当前序列整体乘以值的个数，即使 {name}
// 已在上一轮被替换掉。缺失的字段替换为空字符串，不会报错。
func Expand(text string, dict Dictionary) []string {
	working := []string{text}
	for _, groups := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		key := groups[1]
		val := dict.Lookup(key)
		if !val.multi {
			working = replaceAll(working, key, val.Strings()[0])
			continue
		}
		next := make([]string, 0, len(working)*len(val.items))
		for _, s := range val.items {
			next = append(next, replaceAll(working, key, s)...)
		}
		working = next
	}
	return working
}

// ExpandSpec 展开一个文本元素的声明，返回扁平化后的行以及原始声明行数。
func ExpandSpec(spec Value, dict Dictionary) ([]string, int) {
	if !spec.multi {
		return Expand(spec.Strings()[0], dict), 1
	}
	var lines []string
	for _, line := range spec.items {
		lines = append(lines, Expand(line, dict)...)
	}
	return lines, len(spec.items)
}

// Placeholders 按出现顺序返回 text 中的字段名（含重复）。
func Placeholders(text string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(text, -1)
	names := make([]string, 0, len(matches))
	for _, groups := range matches {
		names = append(names, groups[1])
	}
	return names
}

func replaceAll(working []string, key, replacement string) []string {
	token := "{" + key + "}"
	out := make([]string, len(working))
	for i, s := range working {
		out[i] = strings.ReplaceAll(s, token, replacement)
	}
	return out
}
