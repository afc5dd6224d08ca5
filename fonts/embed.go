package fonts

import (
	"fmt"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/goregular"
)

var builtin = map[string][]byte{
	"Go-Regular":      goregular.TTF,
	"Go-Italic":       goitalic.TTF,
	"Go-Medium":       gomedium.TTF,
	"Go-MediumItalic": gomediumitalic.TTF,
	"Go-Bold":         gobold.TTF,
	"Go-BoldItalic":   gobolditalic.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "embed:Go-Bold" 或直接 "Go-Bold"（不区分大小写）。
func Load(name string) ([]byte, error) {
	name = strings.TrimPrefix(name, "embed:")
	for key, data := range builtin {
		if strings.EqualFold(key, name) {
			return data, nil
		}
	}
	return nil, fmt.Errorf("读取内置字体 %s 失败: 不存在", name)
}

// FallbackName 返回与字重（CSS 100..900）、斜体最接近的内置字体名。
func FallbackName(weight int, italic bool) string {
	name := "Go-Regular"
	switch {
	case weight >= 600:
		name = "Go-Bold"
	case weight >= 500:
		name = "Go-Medium"
	}
	if italic {
		if name == "Go-Regular" {
			return "Go-Italic"
		}
		return name + "Italic"
	}
	return name
}

// Fallback 返回 FallbackName 对应的字体数据。
func Fallback(weight int, italic bool) []byte {
	return builtin[FallbackName(weight, italic)]
}
