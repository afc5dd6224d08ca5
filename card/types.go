package card

// 该文件定义卡片模板的内存结构，供加载、布局与调试输出共用。

import (
	"fmt"
	"strings"

	"github.com/ByLCY/cardfit/binding"
)

// CardTemplate 是加载后的卡片模板。
type CardTemplate struct {
	Dimension  Dimension             `json:"dimension"`
	FontSet    map[string]string     `json:"fontset"`
	FontWeight map[string]int        `json:"fontweight,omitempty"`
	Imports    []string              `json:"imports,omitempty"`
	Texts      []NamedText           `json:"texts"` // 按声明顺序排列
	SVGs       map[string]SVGElement `json:"svgs,omitempty"`
}

// Text 按名称查找文本元素。
func (t *CardTemplate) Text(name string) (TextElement, bool) {
	for _, nt := range t.Texts {
		if nt.Name == name {
			return nt.Element, true
		}
	}
	return TextElement{}, false
}

// Dimension 描述画布尺寸（pt）。
type Dimension struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Offset [2]int  `json:"offset"`
	Scale  int     `json:"scale"`
}

const defaultScale = 10

// NamedText 绑定元素名与元素定义。
type NamedText struct {
	Name    string      `json:"name"`
	Element TextElement `json:"element"`
}

// TextElement 是模板中的一个文本块。
// Text 为单值时声明一行，为多值时每一项声明一行。
type TextElement struct {
	Text     binding.Value `json:"-"`
	FontSet  string        `json:"fontset"`
	FontSize float64       `json:"fontsize"`
	Align    Align         `json:"align"`
	Pos      [2]float64    `json:"pos"`
	Space    [2]float64    `json:"space"`
	Column   *int          `json:"column,omitempty"`
}

// SVGElement 记录模板中声明的矢量图元素；当前只解析不绘制。
type SVGElement struct {
	Path  string     `json:"path"`
	Scale float64    `json:"scale"`
	Pos   [2]float64 `json:"pos"`
}

// Align 是文本的水平对齐方式。
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

func (a Align) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "left"
	}
}

// MarshalText 让调试 JSON 输出可读的对齐名称。
func (a Align) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// ParseAlign 解析 left/center/right，空字符串视为 left。
func ParseAlign(s string) (Align, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "left":
		return AlignLeft, nil
	case "center":
		return AlignCenter, nil
	case "right":
		return AlignRight, nil
	default:
		return AlignLeft, fmt.Errorf("未知的对齐方式 %q（可选 left/center/right）", s)
	}
}
