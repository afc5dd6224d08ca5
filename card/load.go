package card

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/ByLCY/cardfit/binding"
)

// Format 是模板或取值文件的格式。
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFromPath 根据扩展名判断格式，未知扩展名按 TOML 处理。
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

type rawTemplate struct {
	Dimension  *rawDimension      `toml:"dimension" yaml:"dimension"`
	FontSet    map[string]string  `toml:"fontset" yaml:"fontset"`
	FontWeight map[string]int     `toml:"fontweight" yaml:"fontweight"`
	Imports    []string           `toml:"imports" yaml:"imports"`
	Texts      map[string]rawText `toml:"texts" yaml:"texts"`
	SVGs       map[string]rawSVG  `toml:"svgs" yaml:"svgs"`
}

type rawDimension struct {
	Width  *float64 `toml:"width" yaml:"width"`
	Height *float64 `toml:"height" yaml:"height"`
	Offset []int    `toml:"offset" yaml:"offset"`
	Scale  *int     `toml:"scale" yaml:"scale"`
}

type rawText struct {
	Text     any       `toml:"text" yaml:"text"`
	FontSet  *string   `toml:"fontset" yaml:"fontset"`
	FontSize *float64  `toml:"fontsize" yaml:"fontsize"`
	Align    string    `toml:"align" yaml:"align"`
	Pos      []float64 `toml:"pos" yaml:"pos"`
	Space    []float64 `toml:"space" yaml:"space"`
	Column   *int      `toml:"column" yaml:"column"`
}

type rawSVG struct {
	Path  string    `toml:"path" yaml:"path"`
	Scale float64   `toml:"scale" yaml:"scale"`
	Pos   []float64 `toml:"pos" yaml:"pos"`
}

// LoadTemplate 从文件加载模板，格式由扩展名决定。
func LoadTemplate(path string) (*CardTemplate, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开模板文件 %s: %w", path, err)
	}
	defer file.Close()
	tpl, err := ParseTemplate(file, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("加载模板 %s 失败: %w", path, err)
	}
	return tpl, nil
}

// LoadValues 从文件加载取值字典，格式由扩展名决定。
func LoadValues(path string) (binding.Dictionary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开取值文件 %s: %w", path, err)
	}
	defer file.Close()
	dict, err := ParseValues(file, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("加载取值 %s 失败: %w", path, err)
	}
	return dict, nil
}

// ParseTemplate 解析模板内容。
func ParseTemplate(r io.Reader, format Format) (*CardTemplate, error) {
	var (
		raw   rawTemplate
		order []string
	)
	switch format {
	case FormatYAML:
		var root yaml.Node
		if err := yaml.NewDecoder(r).Decode(&root); err != nil {
			return nil, fmt.Errorf("解析 YAML 失败: %w", err)
		}
		if err := root.Decode(&raw); err != nil {
			return nil, fmt.Errorf("解析 YAML 失败: %w", err)
		}
		order = yamlKeys(&root, "texts")
	default:
		md, err := toml.NewDecoder(r).Decode(&raw)
		if err != nil {
			return nil, fmt.Errorf("解析 TOML 失败: %w", err)
		}
		// 点号键与内联表只产生更深的键路径，按首次出现的元素名记录顺序
		seen := map[string]bool{}
		for _, key := range md.Keys() {
			if len(key) >= 2 && key[0] == "texts" && !seen[key[1]] {
				seen[key[1]] = true
				order = append(order, key[1])
			}
		}
	}
	return raw.build(order)
}

// ParseValues 解析取值字典：每个字段为字符串或字符串列表。
func ParseValues(r io.Reader, format Format) (binding.Dictionary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m := map[string]any{}
	switch format {
	case FormatYAML:
		if len(bytes.TrimSpace(data)) > 0 {
			if err := yaml.Unmarshal(data, &m); err != nil {
				return nil, fmt.Errorf("解析 YAML 失败: %w", err)
			}
		}
	default:
		if _, err := toml.Decode(string(data), &m); err != nil {
			return nil, fmt.Errorf("解析 TOML 失败: %w", err)
		}
	}
	dict := make(binding.Dictionary, len(m))
	for key, v := range m {
		val, err := toValue(v)
		if err != nil {
			return nil, fmt.Errorf("字段 %s: %w", key, err)
		}
		if val.IsMulti() && len(val.Strings()) == 0 {
			val = binding.Single("")
		}
		dict[key] = val
	}
	return dict, nil
}

func (raw rawTemplate) build(order []string) (*CardTemplate, error) {
	if raw.Dimension == nil {
		return nil, fmt.Errorf("缺少 dimension 段落")
	}
	dim, err := raw.Dimension.build()
	if err != nil {
		return nil, err
	}
	if raw.FontSet == nil {
		return nil, fmt.Errorf("缺少 fontset 段落")
	}
	if raw.Texts == nil {
		return nil, fmt.Errorf("缺少 texts 段落")
	}
	tpl := &CardTemplate{
		Dimension:  dim,
		FontSet:    raw.FontSet,
		FontWeight: raw.FontWeight,
		Imports:    raw.Imports,
	}

	seen := make(map[string]bool, len(raw.Texts))
	appendText := func(name string) error {
		if seen[name] {
			return nil
		}
		rt, ok := raw.Texts[name]
		if !ok {
			return nil
		}
		seen[name] = true
		el, err := rt.build()
		if err != nil {
			return fmt.Errorf("文本元素 %s: %w", name, err)
		}
		tpl.Texts = append(tpl.Texts, NamedText{Name: name, Element: el})
		return nil
	}
	for _, name := range order {
		if err := appendText(name); err != nil {
			return nil, err
		}
	}
	// 元数据未覆盖的元素按名称补齐，保证结果确定。
	for _, name := range slices.Sorted(maps.Keys(raw.Texts)) {
		if err := appendText(name); err != nil {
			return nil, err
		}
	}

	if len(raw.SVGs) > 0 {
		tpl.SVGs = make(map[string]SVGElement, len(raw.SVGs))
		for name, rs := range raw.SVGs {
			pos, err := pair(rs.Pos, "pos")
			if err != nil {
				return nil, fmt.Errorf("svg 元素 %s: %w", name, err)
			}
			tpl.SVGs[name] = SVGElement{Path: rs.Path, Scale: rs.Scale, Pos: pos}
		}
	}
	return tpl, nil
}

func (rd rawDimension) build() (Dimension, error) {
	if rd.Width == nil || rd.Height == nil {
		return Dimension{}, fmt.Errorf("dimension 缺少 width 或 height")
	}
	if *rd.Width <= 0 || *rd.Height <= 0 {
		return Dimension{}, fmt.Errorf("dimension 尺寸必须为正数: %gx%g", *rd.Width, *rd.Height)
	}
	dim := Dimension{Width: *rd.Width, Height: *rd.Height, Scale: defaultScale}
	if rd.Offset != nil {
		if len(rd.Offset) != 2 {
			return Dimension{}, fmt.Errorf("dimension.offset 需要两个整数，实际 %d 个", len(rd.Offset))
		}
		dim.Offset = [2]int{rd.Offset[0], rd.Offset[1]}
	}
	if rd.Scale != nil {
		dim.Scale = *rd.Scale
	}
	return dim, nil
}

func (rt rawText) build() (TextElement, error) {
	if rt.Text == nil {
		return TextElement{}, fmt.Errorf("缺少 text")
	}
	text, err := toValue(rt.Text)
	if err != nil {
		return TextElement{}, fmt.Errorf("text: %w", err)
	}
	if rt.FontSet == nil {
		return TextElement{}, fmt.Errorf("缺少 fontset")
	}
	if rt.FontSize == nil {
		return TextElement{}, fmt.Errorf("缺少 fontsize")
	}
	if *rt.FontSize <= 0 {
		return TextElement{}, fmt.Errorf("fontsize 必须为正数，实际 %g", *rt.FontSize)
	}
	if rt.Pos == nil {
		return TextElement{}, fmt.Errorf("缺少 pos")
	}
	pos, err := pair(rt.Pos, "pos")
	if err != nil {
		return TextElement{}, err
	}
	align, err := ParseAlign(rt.Align)
	if err != nil {
		return TextElement{}, err
	}
	el := TextElement{
		Text:     text,
		FontSet:  *rt.FontSet,
		FontSize: *rt.FontSize,
		Align:    align,
		Pos:      pos,
	}
	if rt.Space != nil {
		if el.Space, err = pair(rt.Space, "space"); err != nil {
			return TextElement{}, err
		}
	}
	if rt.Column != nil {
		if *rt.Column <= 0 {
			return TextElement{}, fmt.Errorf("column 必须为正整数，实际 %d", *rt.Column)
		}
		col := *rt.Column
		el.Column = &col
	}
	return el, nil
}

// toValue 先尝试字符串列表，再尝试单个字符串。
func toValue(v any) (binding.Value, error) {
	switch val := v.(type) {
	case []any:
		items := make([]string, 0, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return binding.Value{}, fmt.Errorf("列表第 %d 项必须是字符串，实际 %T", i, item)
			}
			items = append(items, norm.NFC.String(s))
		}
		return binding.Multi(items...), nil
	case []string:
		items := make([]string, len(val))
		for i, s := range val {
			items[i] = norm.NFC.String(s)
		}
		return binding.Multi(items...), nil
	case string:
		return binding.Single(norm.NFC.String(val)), nil
	default:
		return binding.Value{}, fmt.Errorf("值必须是字符串或字符串列表，实际 %T", v)
	}
}

func pair(vals []float64, field string) ([2]float64, error) {
	if len(vals) != 2 {
		return [2]float64{}, fmt.Errorf("%s 需要两个数值，实际 %d 个", field, len(vals))
	}
	return [2]float64{vals[0], vals[1]}, nil
}

// yamlKeys 返回文档根映射中 section 映射的键，保持声明顺序。
func yamlKeys(root *yaml.Node, section string) []string {
	node := root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != section {
			continue
		}
		val := node.Content[i+1]
		if val.Kind != yaml.MappingNode {
			return nil
		}
		keys := make([]string, 0, len(val.Content)/2)
		for j := 0; j+1 < len(val.Content); j += 2 {
			keys = append(keys, val.Content[j].Value)
		}
		return keys
	}
	return nil
}
