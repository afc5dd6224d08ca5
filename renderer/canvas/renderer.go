package canvasrenderer

import (
	"bytes"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/cardfit/fontdesc"
	"github.com/ByLCY/cardfit/fonts"
	"github.com/ByLCY/cardfit/layout"
	"github.com/ByLCY/cardfit/renderer"
)

// Renderer draws glyphs via github.com/tdewolff/canvas.
// 布局坐标为 pt，canvas 内部为 mm，所有换算都在本包边界完成。
type Renderer struct {
	baseDir     string
	resolution  float64
	systemFonts bool
	imports     map[string]string // 归一化文件名 → 路径
	meta        DocumentMeta
	logger      *log.Logger

	fontMu       sync.Mutex
	fontFamilies map[string]*fontFamilyEntry

	canvas *canvas.Canvas
	ctx    *canvas.Context
	face   *canvas.FontFace
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Typesetter = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
	source string
}

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	// Resolution 对应 DPI，字号按 Resolution/72 放大；<=0 时使用 96。
	Resolution float64
	// Imports 是模板 imports 中列出的字体文件，相对路径基于 BaseDir。
	Imports []string
	// SystemFonts 允许按字体族名查找系统已安装的字体。
	SystemFonts bool
	Meta        DocumentMeta
	Logger      *log.Logger
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title   string
	Subject string
	Author  string
	Creator string
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving font imports.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with the given options.
func NewRendererWithOptions(opts Options) *Renderer {
	res := opts.Resolution
	if res <= 0 {
		res = layout.DefaultResolution
	}
	r := &Renderer{
		baseDir:      opts.BaseDir,
		resolution:   res,
		systemFonts:  opts.SystemFonts,
		imports:      map[string]string{},
		meta:         opts.Meta,
		logger:       opts.Logger,
		fontFamilies: map[string]*fontFamilyEntry{},
	}
	for _, path := range opts.Imports {
		if path == "" {
			continue
		}
		if !filepath.IsAbs(path) && r.baseDir != "" {
			path = filepath.Join(r.baseDir, path)
		}
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		r.imports[normalizeName(stem)] = path
	}
	return r
}

// Begin 实现 layout.Typesetter，创建新的画布。
func (r *Renderer) Begin(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("画布尺寸必须为正数: %gx%g", width, height)
	}
	r.canvas = canvas.New(toMm(width), toMm(height))
	r.ctx = canvas.NewContext(r.canvas)
	r.ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与模板保持左上角为原点
	r.face = nil
	return nil
}

// SetFont 实现 layout.Typesetter。font.Size 为模板字号（pt），按分辨率放大后创建字体面。
func (r *Renderer) SetFont(font layout.FontSpec) error {
	desc, err := fontdesc.Parse(font.Descriptor)
	if err != nil {
		return err
	}
	if font.Weight > 0 {
		desc.Weight = fontdesc.WeightFromNumber(font.Weight)
	}
	family, style, err := r.ensureFontFamily(desc)
	if err != nil {
		return err
	}
	r.face = family.Face(font.Size*layout.ResolutionScale(r.resolution), canvas.Black, style, canvas.FontNormal)
	return nil
}

// TextWidth 实现 layout.Typesetter，返回 pt。
func (r *Renderer) TextWidth(s string) float64 {
	if r.face == nil {
		return 0
	}
	return toPt(r.face.TextWidth(s))
}

// DrawGlyph 实现 layout.Typesetter：以 (x, y) 为字符框左上角绘制，返回字宽与行高（pt）。
func (r *Renderer) DrawGlyph(x, y float64, ch rune) (float64, float64) {
	if r.face == nil || r.ctx == nil {
		return 0, 0
	}
	s := string(ch)
	metrics := r.face.Metrics()
	// 基线位置：字符框顶部加上字体上升部（Ascent，mm）
	baseline := toMm(y) + metrics.Ascent
	r.ctx.DrawText(toMm(x), baseline, canvas.NewTextLine(r.face, s, canvas.Left))
	return toPt(r.face.TextWidth(s)), toPt(metrics.LineHeight)
}

// Render 将已绘制的画布编码为指定格式。
func (r *Renderer) Render(result *layout.Result, format renderer.Format) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if r.canvas == nil {
		return nil, fmt.Errorf("尚未创建画布")
	}

	var buf bytes.Buffer
	switch format {
	case renderer.FormatSVG:
		if err := renderers.SVG()(&buf, r.canvas); err != nil {
			return nil, fmt.Errorf("写入 SVG 失败: %w", err)
		}
	case renderer.FormatPNG:
		if err := renderers.PNG(canvas.DPI(r.resolution))(&buf, r.canvas); err != nil {
			return nil, fmt.Errorf("写入 PNG 失败: %w", err)
		}
	default:
		writer := pdf.New(&buf, r.canvas.W, r.canvas.H, nil)
		writer.SetInfo(r.meta.Title, r.meta.Subject, "", r.meta.Author, r.meta.Creator)
		r.canvas.RenderTo(writer)
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("写入 PDF 失败: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func (r *Renderer) ensureFontFamily(desc fontdesc.Description) (*canvas.FontFamily, canvas.FontStyle, error) {
	style := canvasStyle(desc.Weight, desc.Italic)
	key := fontCacheKey(desc, style)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	familyName := desc.Family()
	if familyName == "" {
		familyName = "Body"
	}
	family := canvas.NewFontFamily(familyName)
	source, err := r.loadFontIntoFamily(family, desc, style)
	if err != nil {
		return nil, canvas.FontRegular, err
	}
	r.fontFamilies[key] = &fontFamilyEntry{family: family, style: style, source: source}
	return family, style, nil
}

// loadFontIntoFamily 依次尝试 imports、系统字体与内置字体，返回实际使用的来源。
func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, desc fontdesc.Description, style canvas.FontStyle) (string, error) {
	for _, name := range desc.Families {
		if path, ok := r.lookupImport(name, desc.Weight, desc.Italic); ok {
			if err := family.LoadFontFile(path, style); err != nil {
				return "", fmt.Errorf("加载字体文件 %s 失败: %w", path, err)
			}
			return "import:" + path, nil
		}
	}
	if r.systemFonts {
		for _, name := range desc.Families {
			if err := family.LoadSystemFont(name, style); err == nil {
				return "system:" + name, nil
			}
		}
	}

	fallback := fonts.FallbackName(int(desc.Weight), desc.Italic)
	data, err := fonts.Load(fallback)
	if err != nil {
		return "", err
	}
	if err := family.LoadFont(data, 0, style); err != nil {
		return "", fmt.Errorf("加载内置字体 %s 失败: %w", fallback, err)
	}
	if r.logger != nil && len(desc.Families) > 0 {
		r.logger.Printf("字体 %s 不可用，改用内置字体 %s", strings.Join(desc.Families, ", "), fallback)
	}
	return "embed:" + fallback, nil
}

// lookupImport 先匹配带样式后缀的文件名（如 NotoSansJP-Bold），再匹配族名本身。
func (r *Renderer) lookupImport(family string, weight fontdesc.Weight, italic bool) (string, bool) {
	base := normalizeName(family)
	var candidates []string
	if suffix := styleSuffix(weight, italic); suffix != "" {
		candidates = append(candidates, base+suffix)
	}
	candidates = append(candidates, base, base+"regular")
	for _, c := range candidates {
		if path, ok := r.imports[c]; ok {
			return path, true
		}
	}
	return "", false
}

func styleSuffix(weight fontdesc.Weight, italic bool) string {
	var s string
	switch {
	case weight >= fontdesc.WeightBlack:
		s = "black"
	case weight >= fontdesc.WeightExtraBold:
		s = "extrabold"
	case weight >= fontdesc.WeightBold:
		s = "bold"
	case weight >= fontdesc.WeightSemiBold:
		s = "semibold"
	case weight >= fontdesc.WeightMedium:
		s = "medium"
	case weight <= fontdesc.WeightLight:
		s = "light"
	}
	if italic {
		s += "italic"
	}
	return s
}

// canvasStyle 将 CSS 字重映射为 canvas 的字体样式。
func canvasStyle(weight fontdesc.Weight, italic bool) canvas.FontStyle {
	var result canvas.FontStyle
	switch {
	case weight >= fontdesc.WeightBlack:
		result = canvas.FontBlack
	case weight >= fontdesc.WeightExtraBold:
		result = canvas.FontExtraBold
	case weight >= fontdesc.WeightBold:
		result = canvas.FontBold
	case weight >= fontdesc.WeightSemiBold:
		result = canvas.FontSemiBold
	case weight >= fontdesc.WeightMedium:
		result = canvas.FontMedium
	case weight <= fontdesc.WeightLight:
		result = canvas.FontLight
	default:
		result = canvas.FontRegular
	}
	if italic {
		result |= canvas.FontItalic
	}
	return result
}

func normalizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(name))
}

func fontCacheKey(desc fontdesc.Description, style canvas.FontStyle) string {
	return fmt.Sprintf("%s|%d", strings.Join(desc.Families, ","), style)
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }

// toMm 将点(pt)转换为毫米(mm)。
func toMm(pt float64) float64 { return pt * layout.PtToMm }
