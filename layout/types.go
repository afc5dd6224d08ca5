package layout

// 该文件定义布局结果，供渲染与调试 JSON 共用。

// Result 保存一次渲染的全部元素排版记录。
type Result struct {
	Width    float64         `json:"width"`
	Height   float64         `json:"height"`
	Elements []ElementResult `json:"elements"`
}

// Point 是 pt 单位的坐标。
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ElementResult 记录一个文本元素的适配参数与逐字绘制位置。
type ElementResult struct {
	Name         string       `json:"name"`
	Font         FontSpec     `json:"font"`
	Align        string       `json:"align"`
	SlotCount    int          `json:"slotCount"`
	VariantCount int          `json:"variantCount"`
	MaxLen       int          `json:"maxLen"`
	Magnitude    float64      `json:"magnitude"`
	Scale        float64      `json:"scale"`
	Lines        []LineResult `json:"lines"`
	Cursor       Point        `json:"cursor"` // 元素绘制完成后的游标
}

// LineResult 表示一行展开后的文本。
type LineResult struct {
	Content string  `json:"content"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Glyphs  []Glyph `json:"glyphs"`
}

// Glyph 是一次字符绘制调用。
type Glyph struct {
	Char   string  `json:"char"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
