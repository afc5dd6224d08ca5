package layout

import "log"

// BuildOptions 配置布局阶段所需的依赖，例如排版后端。
type BuildOptions struct {
	Typesetter Typesetter
	// Logger 为空时不输出逐元素的适配日志。
	Logger *log.Logger
}

// FontSpec 描述一个元素使用的字体。
type FontSpec struct {
	Key        string  `json:"key"`
	Descriptor string  `json:"descriptor"`
	Weight     int     `json:"weight,omitempty"` // 模板 fontweight 覆盖值，0 表示未设置
	Size       float64 `json:"size"`
}

// Typesetter 负责字形度量与逐字绘制，所有长度单位为 pt。
// 同一时刻只有一个当前字体，调用方须按顺序使用。
type Typesetter interface {
	// Begin 创建 width×height 的绘图表面。
	Begin(width, height float64) error
	// SetFont 切换后续度量与绘制使用的字体。
	SetFont(font FontSpec) error
	// TextWidth 返回字符串在当前字体下的宽度。
	TextWidth(s string) float64
	// DrawGlyph 以 (x, y) 为左上角绘制单个字符，返回字符的宽与高。
	DrawGlyph(x, y float64, r rune) (width, height float64)
}
