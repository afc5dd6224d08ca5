package renderer

import (
	"path/filepath"
	"strings"

	"github.com/ByLCY/cardfit/layout"
)

// Format 是输出文件格式。
type Format string

const (
	FormatPDF Format = "pdf"
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// FormatFromPath 根据输出路径的扩展名选择格式，默认 PDF。
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		return FormatSVG
	case ".png":
		return FormatPNG
	default:
		return FormatPDF
	}
}

// Renderer 将布局阶段绘制的内容编码为最终文件。
// 输出完全来自 Build 期间后端已绘制的内容；result 只用于确认布局已完成，不会被重新绘制。
// Render 返回生成的二进制数据（例如 PDF 字节切片）以及可能的错误。
type Renderer interface {
	Render(result *layout.Result, format Format) ([]byte, error)
}
