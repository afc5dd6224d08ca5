package fontdesc

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// 字体描述沿用 Pango 的写法："[FAMILY-LIST] [STYLE-OPTIONS] [SIZE]"，
// 例如 "Noto Sans CJK JP Bold 12" 或 "Sans, Serif Italic"。

var (
	descLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
		{Name: "Comma", Pattern: `,`},
		{Name: "Word", Pattern: `[^\s,]+`},
	})

	descParser = participle.MustBuild[descriptorAST](
		participle.Lexer(descLexer),
		participle.Elide("Whitespace"),
	)
)

// descriptorAST 是逗号分隔的词组列表，样式与字号只出现在最后一组末尾。
type descriptorAST struct {
	Pos    lexer.Position `parser:""`
	Groups []*wordGroup   `parser:"( @@ ( Comma @@ )* )?"`
}

type wordGroup struct {
	Words []string `parser:"@Word+"`
}

// Weight 采用 CSS 字重刻度（100..900）。
type Weight int

const (
	WeightThin       Weight = 100
	WeightExtraLight Weight = 200
	WeightLight      Weight = 300
	WeightRegular    Weight = 400
	WeightMedium     Weight = 500
	WeightSemiBold   Weight = 600
	WeightBold       Weight = 700
	WeightExtraBold  Weight = 800
	WeightBlack      Weight = 900
)

// WeightFromNumber 将模板 fontweight 中的数值取整到最近的百位并限制在 100..900。
func WeightFromNumber(n int) Weight {
	if n <= 100 {
		return WeightThin
	}
	if n >= 900 {
		return WeightBlack
	}
	return Weight(int(math.Round(float64(n)/100)) * 100)
}

// Description 是解析后的字体描述。
type Description struct {
	Families []string `json:"families"`
	Weight   Weight   `json:"weight"`
	Italic   bool     `json:"italic"`
	Stretch  string   `json:"stretch,omitempty"`
	Size     float64  `json:"size,omitempty"`
	// Absolute 记录字号是否以像素给出（"12px"），只做解析，排版不读取。
	Absolute bool `json:"absolute,omitempty"`
}

// Family 返回首选字体族，未声明时为空。
func (d Description) Family() string {
	if len(d.Families) == 0 {
		return ""
	}
	return d.Families[0]
}

var weightWords = map[string]Weight{
	"thin":        WeightThin,
	"ultralight":  WeightExtraLight,
	"ultra-light": WeightExtraLight,
	"extralight":  WeightExtraLight,
	"extra-light": WeightExtraLight,
	"light":       WeightLight,
	"semilight":   WeightLight,
	"semi-light":  WeightLight,
	"book":        WeightRegular,
	"regular":     WeightRegular,
	"medium":      WeightMedium,
	"semibold":    WeightSemiBold,
	"semi-bold":   WeightSemiBold,
	"demibold":    WeightSemiBold,
	"demi-bold":   WeightSemiBold,
	"bold":        WeightBold,
	"ultrabold":   WeightExtraBold,
	"ultra-bold":  WeightExtraBold,
	"extrabold":   WeightExtraBold,
	"extra-bold":  WeightExtraBold,
	"heavy":       WeightBlack,
	"black":       WeightBlack,
	"ultraheavy":  WeightBlack,
	"ultra-heavy": WeightBlack,
}

var stretchWords = map[string]bool{
	"ultra-condensed": true,
	"extra-condensed": true,
	"condensed":       true,
	"semi-condensed":  true,
	"semi-expanded":   true,
	"expanded":        true,
	"extra-expanded":  true,
	"ultra-expanded":  true,
}

// Parse 解析字体描述字符串。
func Parse(input string) (Description, error) {
	if strings.TrimSpace(input) == "" {
		return Description{}, fmt.Errorf("字体描述为空")
	}
	ast, err := descParser.ParseString("", input)
	if err != nil {
		return Description{}, fmt.Errorf("解析字体描述 %q 失败: %w", input, err)
	}
	desc := Description{Weight: WeightRegular}
	if len(ast.Groups) == 0 {
		return desc, nil
	}
	for _, g := range ast.Groups[:len(ast.Groups)-1] {
		desc.Families = append(desc.Families, strings.Join(g.Words, " "))
	}

	words := ast.Groups[len(ast.Groups)-1].Words
	if n := len(words); n > 0 {
		if size, abs, ok := parseSize(words[n-1]); ok {
			desc.Size = size
			desc.Absolute = abs
			words = words[:n-1]
		}
	}
	for len(words) > 0 {
		if !applyStyleWord(&desc, words[len(words)-1]) {
			break
		}
		words = words[:len(words)-1]
	}
	if len(words) > 0 {
		desc.Families = append(desc.Families, strings.Join(words, " "))
	}
	return desc, nil
}

func parseSize(word string) (float64, bool, bool) {
	abs := false
	num := word
	if strings.HasSuffix(strings.ToLower(word), "px") {
		abs = true
		num = word[:len(word)-2]
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil || f <= 0 {
		return 0, false, false
	}
	return f, abs, true
}

func applyStyleWord(desc *Description, word string) bool {
	w := strings.ToLower(word)
	if weight, ok := weightWords[w]; ok {
		desc.Weight = weight
		return true
	}
	if stretchWords[w] {
		desc.Stretch = w
		return true
	}
	switch w {
	case "italic", "oblique":
		desc.Italic = true
		return true
	case "normal", "roman":
		return true
	}
	return false
}
