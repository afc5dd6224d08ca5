package layout

import (
	"math"
	"unicode/utf8"
)

// MaxLen 返回各行字符数的最大值；没有行时为 1。
func MaxLen(lines []string) int {
	maxLen := 0
	for _, l := range lines {
		if n := utf8.RuneCountInString(l); n > maxLen {
			maxLen = n
		}
	}
	if len(lines) == 0 {
		return 1
	}
	return maxLen
}

// Magnitude 是声明行数与实际行数之比。实际行数为 0 时返回 1。
func Magnitude(slotCount, variantCount int) float64 {
	if variantCount <= 0 {
		return 1
	}
	return float64(slotCount) / float64(variantCount)
}

// ScaleFactor 计算字号缩放系数，设置了 column 时再受 column/maxLen 约束。
func ScaleFactor(maxLen, slotCount, variantCount int, column *int) float64 {
	mag := Magnitude(slotCount, variantCount)
	if column == nil {
		return mag
	}
	return math.Min(float64(*column)/float64(maxLen), mag)
}

// FitFontSize 返回展开后的行应使用的字号，同一元素的所有行共用该字号。
func FitFontSize(lines []string, slotCount int, column *int, base float64) float64 {
	return base * ScaleFactor(MaxLen(lines), slotCount, len(lines), column)
}
