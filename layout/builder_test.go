package layout

import (
	"bytes"
	"errors"
	"log"
	"math"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ByLCY/cardfit/binding"
	"github.com/ByLCY/cardfit/card"
)

// stubTypesetter 是一个等宽的最小实现，仅用于测试，避免引入 renderer 造成循环依赖。
// 每个字符宽 0.5×字号、高 1.2×字号。
type stubTypesetter struct {
	width, height float64
	font          FontSpec
	fonts         []FontSpec
	draws         []Glyph
	beginErr      error
	fontErr       error
}

func (s *stubTypesetter) Begin(width, height float64) error {
	s.width, s.height = width, height
	return s.beginErr
}

func (s *stubTypesetter) SetFont(font FontSpec) error {
	if s.fontErr != nil {
		return s.fontErr
	}
	s.font = font
	s.fonts = append(s.fonts, font)
	return nil
}

func (s *stubTypesetter) TextWidth(str string) float64 {
	return float64(utf8.RuneCountInString(str)) * s.font.Size * 0.5
}

func (s *stubTypesetter) DrawGlyph(x, y float64, r rune) (float64, float64) {
	w, h := s.font.Size*0.5, s.font.Size*1.2
	s.draws = append(s.draws, Glyph{Char: string(r), X: x, Y: y, Width: w, Height: h})
	return w, h
}

func eq(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func newTemplate(texts ...card.NamedText) *card.CardTemplate {
	return &card.CardTemplate{
		Dimension: card.Dimension{Width: 200, Height: 100},
		FontSet:   map[string]string{"body": "Sans 10", "title": "Serif Bold"},
		Texts:     texts,
	}
}

// TestBuildHelloScenario 对应声明 1 行、展开为 2 行的场景：字号减半，第二行紧接第一行。
func TestBuildHelloScenario(t *testing.T) {
	tpl := newTemplate(card.NamedText{Name: "greet", Element: card.TextElement{
		Text:     binding.Multi("Hello {name}"),
		FontSet:  "body",
		FontSize: 10,
		Pos:      [2]float64{20, 30},
		Space:    [2]float64{0, 1.5},
	}})
	dict := binding.Dictionary{"name": binding.Multi("Ann", "Bo")}
	ts := &stubTypesetter{}
	res, err := Build(tpl, dict, BuildOptions{Typesetter: ts})
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	if ts.width != 200 || ts.height != 100 {
		t.Fatalf("绘图表面尺寸错误: %gx%g", ts.width, ts.height)
	}
	if len(res.Elements) != 1 {
		t.Fatalf("应只有一个元素，实际 %d", len(res.Elements))
	}
	er := res.Elements[0]
	if er.Magnitude != 0.5 || er.Font.Size != 5 {
		t.Fatalf("magnitude/字号错误: %g %g", er.Magnitude, er.Font.Size)
	}
	if len(ts.fonts) != 1 || ts.fonts[0].Descriptor != "Sans 10" || ts.fonts[0].Size != 5 {
		t.Fatalf("每个元素只应设置一次字体: %#v", ts.fonts)
	}
	if len(er.Lines) != 2 || er.Lines[0].Content != "Hello Ann" || er.Lines[1].Content != "Hello Bo" {
		t.Fatalf("展开行错误: %#v", er.Lines)
	}
	first, second := er.Lines[0], er.Lines[1]
	if !eq(first.Y, 30) || !eq(first.Height, 6) {
		t.Fatalf("第一行位置错误: y=%g h=%g", first.Y, first.Height)
	}
	if want := first.Y + first.Height + 1.5; !eq(second.Y, want) {
		t.Fatalf("第二行 y 应为 %g，实际 %g", want, second.Y)
	}
	if !eq(er.Cursor.Y, second.Y+second.Height+1.5) || !eq(er.Cursor.X, 20) {
		t.Fatalf("最终游标错误: %#v", er.Cursor)
	}
	if got := len(ts.draws); got != len("Hello Ann")+len("Hello Bo") {
		t.Fatalf("每个字符应恰好绘制一次，实际 %d 次", got)
	}
}

// TestPlaceAdvancesCursorWithSpacing 验证逐字推进：x += 字宽 + 字间距，且行首回到锚点。
func TestPlaceAdvancesCursorWithSpacing(t *testing.T) {
	ts := &stubTypesetter{}
	er, err := Place(ts, Element{
		Name:      "e",
		Lines:     []string{"ab", "c"},
		SlotCount: 2,
		BaseSize:  4,
		Anchor:    Point{X: 10, Y: 0},
		Space:     [2]float64{1, 0},
	})
	if err != nil {
		t.Fatalf("Place 失败: %v", err)
	}
	want := []Glyph{
		{Char: "a", X: 10, Y: 0, Width: 2, Height: 4.8},
		{Char: "b", X: 13, Y: 0, Width: 2, Height: 4.8},
		{Char: "c", X: 10, Y: 4.8, Width: 2, Height: 4.8},
	}
	if len(ts.draws) != len(want) {
		t.Fatalf("绘制次数错误: %d", len(ts.draws))
	}
	for i := range want {
		g, w := ts.draws[i], want[i]
		if g.Char != w.Char || !eq(g.X, w.X) || !eq(g.Y, w.Y) {
			t.Fatalf("第 %d 次绘制错误: got=%#v want=%#v", i, g, w)
		}
	}
	if !reflect.DeepEqual(er.Lines[0].Glyphs, ts.draws[:2]) {
		t.Fatalf("结果记录应与绘制调用一致")
	}
	// 宽度含每个字符的字间距
	if !eq(er.Lines[0].Width, 2*2+2*1) {
		t.Fatalf("行宽错误: %g", er.Lines[0].Width)
	}
}

func TestPlaceAlignment(t *testing.T) {
	cases := []struct {
		align card.Align
		want  float64
	}{
		{card.AlignLeft, 50},
		{card.AlignCenter, 50 - 12.0/2},
		{card.AlignRight, 50 - 12},
	}
	for _, c := range cases {
		ts := &stubTypesetter{}
		// "abc" 在 8 号字下宽 12
		_, err := Place(ts, Element{
			Lines:     []string{"abc"},
			SlotCount: 1,
			BaseSize:  8,
			Align:     c.align,
			Anchor:    Point{X: 50, Y: 10},
		})
		if err != nil {
			t.Fatalf("Place 失败: %v", err)
		}
		if !eq(ts.draws[0].X, c.want) {
			t.Fatalf("%s 对齐首字 x 应为 %g，实际 %g", c.align, c.want, ts.draws[0].X)
		}
	}
}

func TestPlaceEmptyLineAdvancesOnlySpacing(t *testing.T) {
	ts := &stubTypesetter{}
	er, err := Place(ts, Element{
		Lines:     []string{"", "x"},
		SlotCount: 2,
		BaseSize:  10,
		Anchor:    Point{X: 0, Y: 5},
		Space:     [2]float64{0, 2},
	})
	if err != nil {
		t.Fatalf("Place 失败: %v", err)
	}
	if !eq(er.Lines[1].Y, 7) {
		t.Fatalf("空行只推进行间距，第二行 y 应为 7，实际 %g", er.Lines[1].Y)
	}
}

func TestPlaceNoLinesDrawsNothing(t *testing.T) {
	ts := &stubTypesetter{}
	er, err := Place(ts, Element{SlotCount: 0, BaseSize: 10, Anchor: Point{X: 3, Y: 4}})
	if err != nil {
		t.Fatalf("Place 失败: %v", err)
	}
	if len(ts.draws) != 0 || len(ts.fonts) != 0 {
		t.Fatalf("没有行时不应设置字体或绘制")
	}
	if er.Cursor != (Point{X: 3, Y: 4}) || er.Font.Size != 10 {
		t.Fatalf("unexpected result: %#v", er)
	}
}

// TestBuildMissingFontAborts 验证缺失字体集是致命错误，并且之后的元素不再绘制。
func TestBuildMissingFontAborts(t *testing.T) {
	tpl := newTemplate(
		card.NamedText{Name: "ok", Element: card.TextElement{Text: binding.Single("a"), FontSet: "body", FontSize: 10}},
		card.NamedText{Name: "bad", Element: card.TextElement{Text: binding.Single("b"), FontSet: "ghost", FontSize: 10}},
		card.NamedText{Name: "later", Element: card.TextElement{Text: binding.Single("c"), FontSet: "body", FontSize: 10}},
	)
	ts := &stubTypesetter{}
	res, err := Build(tpl, nil, BuildOptions{Typesetter: ts})
	if !errors.Is(err, ErrFontNotFound) {
		t.Fatalf("期望 ErrFontNotFound，实际 %v", err)
	}
	if res != nil {
		t.Fatalf("失败时不应返回部分结果")
	}
	if len(ts.draws) != 1 || ts.draws[0].Char != "a" {
		t.Fatalf("失败前只应绘制 ok 元素: %#v", ts.draws)
	}
}

// TestBuildMissingPlaceholderIsNotError 验证缺失的取值替换为空字符串。
func TestBuildMissingPlaceholderIsNotError(t *testing.T) {
	tpl := newTemplate(card.NamedText{Name: "g", Element: card.TextElement{
		Text: binding.Single("<{ghost}>"), FontSet: "body", FontSize: 10,
	}})
	res, err := Build(tpl, binding.Dictionary{}, BuildOptions{Typesetter: &stubTypesetter{}})
	if err != nil {
		t.Fatalf("缺失取值不应报错: %v", err)
	}
	if got := res.Elements[0].Lines[0].Content; got != "<>" {
		t.Fatalf("got %q", got)
	}
}

func TestBuildKeepsDeclarationOrderAndIgnoresOffset(t *testing.T) {
	tpl := newTemplate(
		card.NamedText{Name: "z", Element: card.TextElement{Text: binding.Single("1"), FontSet: "title", FontSize: 10, Pos: [2]float64{10, 10}}},
		card.NamedText{Name: "a", Element: card.TextElement{Text: binding.Single("2"), FontSet: "body", FontSize: 10, Pos: [2]float64{1, 1}}},
	)
	tpl.Dimension.Offset = [2]int{7, 7}
	tpl.FontWeight = map[string]int{"title": 900}
	ts := &stubTypesetter{}
	res, err := Build(tpl, nil, BuildOptions{Typesetter: ts})
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	if res.Elements[0].Name != "z" || res.Elements[1].Name != "a" {
		t.Fatalf("元素顺序错误")
	}
	if ts.draws[0].Char != "1" || ts.draws[1].Char != "2" {
		t.Fatalf("绘制顺序错误: %#v", ts.draws)
	}
	// 左对齐时首字落在 pos 上，offset 不改变锚点
	if !eq(ts.draws[0].X, 10) || !eq(ts.draws[0].Y, 10) {
		t.Fatalf("首字应位于 pos (10,10): %#v", ts.draws[0])
	}
	if !eq(ts.draws[1].X, 1) || !eq(ts.draws[1].Y, 1) {
		t.Fatalf("第二个元素应位于 pos (1,1): %#v", ts.draws[1])
	}
	if ts.fonts[0].Weight != 900 || ts.fonts[1].Weight != 0 {
		t.Fatalf("fontweight 覆盖错误: %#v", ts.fonts)
	}
}

func TestBuildLogsReferencedFields(t *testing.T) {
	tpl := newTemplate(card.NamedText{Name: "greet", Element: card.TextElement{
		Text: binding.Multi("{a} and {b}", "{a}"), FontSet: "body", FontSize: 10,
	}})
	var buf bytes.Buffer
	_, err := Build(tpl, binding.Dictionary{"a": binding.Single("x")}, BuildOptions{
		Typesetter: &stubTypesetter{},
		Logger:     log.New(&buf, "", 0),
	})
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	if !strings.Contains(buf.String(), "greet: 字段 [a b a]") {
		t.Fatalf("日志缺少字段列表: %q", buf.String())
	}
}

func TestBuildPropagatesBackendErrors(t *testing.T) {
	tpl := newTemplate(card.NamedText{Name: "g", Element: card.TextElement{Text: binding.Single("x"), FontSet: "body", FontSize: 10}})
	if _, err := Build(tpl, nil, BuildOptions{Typesetter: &stubTypesetter{beginErr: errors.New("boom")}}); err == nil {
		t.Fatalf("Begin 失败应返回错误")
	}
	if _, err := Build(tpl, nil, BuildOptions{Typesetter: &stubTypesetter{fontErr: errors.New("boom")}}); err == nil {
		t.Fatalf("SetFont 失败应返回错误")
	}
	if _, err := Build(tpl, nil, BuildOptions{}); err == nil {
		t.Fatalf("缺少 Typesetter 应返回错误")
	}
}
