package layout

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/ByLCY/cardfit/binding"
	"github.com/ByLCY/cardfit/card"
)

// ErrFontNotFound 表示元素引用的字体集在模板 fontset 中不存在。
var ErrFontNotFound = errors.New("字体集未定义")

// Element 是单个文本元素的排版输入。
type Element struct {
	Name      string
	Lines     []string // 展开后的行
	SlotCount int      // 模板中声明的行数
	Column    *int
	BaseSize  float64
	Font      FontSpec
	Align     card.Align
	Anchor    Point
	Space     [2]float64 // 字间距、行间距
}

// Build 按声明顺序展开并绘制模板中的全部文本元素。
// 任何元素失败都会终止整个构建，不保留部分结果。
func Build(tpl *card.CardTemplate, dict binding.Dictionary, opts BuildOptions) (*Result, error) {
	if tpl == nil {
		return nil, fmt.Errorf("模板为空")
	}
	ts := opts.Typesetter
	if ts == nil {
		return nil, fmt.Errorf("layout: 缺少排版后端 Typesetter")
	}
	dim := tpl.Dimension
	if err := ts.Begin(dim.Width, dim.Height); err != nil {
		return nil, fmt.Errorf("创建绘图表面失败: %w", err)
	}

	result := &Result{Width: dim.Width, Height: dim.Height}
	for _, nt := range tpl.Texts {
		el, err := prepareElement(tpl, nt, dict)
		if err != nil {
			return nil, err
		}
		er, err := Place(ts, el)
		if err != nil {
			return nil, fmt.Errorf("文本元素 %s: %w", nt.Name, err)
		}
		if opts.Logger != nil {
			opts.Logger.Printf("%s: 字段 %v 声明 %d 行 展开 %d 行 最长 %d 字 缩放 %.3f 字号 %.2f",
				er.Name, fieldNames(nt.Element.Text), er.SlotCount, er.VariantCount, er.MaxLen, er.Scale, er.Font.Size)
		}
		result.Elements = append(result.Elements, er)
	}
	return result, nil
}

// fieldNames 列出元素声明中引用的字段，仅用于日志。
func fieldNames(text binding.Value) []string {
	var names []string
	for _, line := range text.Strings() {
		names = append(names, binding.Placeholders(line)...)
	}
	return names
}

// prepareElement 以 pos 作为锚点；dimension.offset 不参与定位。
func prepareElement(tpl *card.CardTemplate, nt card.NamedText, dict binding.Dictionary) (Element, error) {
	te := nt.Element
	lines, slots := binding.ExpandSpec(te.Text, dict)
	desc, ok := tpl.FontSet[te.FontSet]
	if !ok {
		return Element{}, fmt.Errorf("文本元素 %s: %w: %s", nt.Name, ErrFontNotFound, te.FontSet)
	}
	return Element{
		Name:      nt.Name,
		Lines:     lines,
		SlotCount: slots,
		Column:    te.Column,
		BaseSize:  te.FontSize,
		Font: FontSpec{
			Key:        te.FontSet,
			Descriptor: desc,
			Weight:     tpl.FontWeight[te.FontSet],
		},
		Align:  te.Align,
		Anchor: Point{X: te.Pos[0], Y: te.Pos[1]},
		Space:  te.Space,
	}, nil
}

// Place 计算元素字号并逐字绘制。每个字符只绘制一次，位置取绘制时的游标；
// 行首横坐标按对齐方式从锚点回退，纵向游标在行间累加。
func Place(ts Typesetter, el Element) (ElementResult, error) {
	maxLen := MaxLen(el.Lines)
	scale := ScaleFactor(maxLen, el.SlotCount, len(el.Lines), el.Column)
	font := el.Font
	font.Size = el.BaseSize * scale
	er := ElementResult{
		Name:         el.Name,
		Font:         font,
		Align:        el.Align.String(),
		SlotCount:    el.SlotCount,
		VariantCount: len(el.Lines),
		MaxLen:       maxLen,
		Magnitude:    Magnitude(el.SlotCount, len(el.Lines)),
		Scale:        scale,
		Cursor:       el.Anchor,
	}
	if len(el.Lines) == 0 {
		return er, nil
	}
	if err := ts.SetFont(font); err != nil {
		return ElementResult{}, err
	}

	hspace, vspace := el.Space[0], el.Space[1]
	y := el.Anchor.Y
	for _, line := range el.Lines {
		width := ts.TextWidth(line) + hspace*float64(utf8.RuneCountInString(line))
		x := el.Anchor.X - alignOffset(el.Align, width)
		lr := LineResult{Content: line, X: x, Y: y, Width: width}
		for _, r := range line {
			gw, gh := ts.DrawGlyph(x, y, r)
			lr.Glyphs = append(lr.Glyphs, Glyph{Char: string(r), X: x, Y: y, Width: gw, Height: gh})
			x += gw + hspace
			lr.Height = max(lr.Height, gh)
		}
		er.Lines = append(er.Lines, lr)
		y += lr.Height + vspace
	}
	er.Cursor = Point{X: el.Anchor.X, Y: y}
	return er, nil
}

func alignOffset(align card.Align, width float64) float64 {
	switch align {
	case card.AlignCenter:
		return width / 2
	case card.AlignRight:
		return width
	default:
		return 0
	}
}
