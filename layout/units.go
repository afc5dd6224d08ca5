package layout

// 模板坐标与字号以 pt 为单位，canvas 以 mm 为单位，二者在渲染器边界换算。

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

// PointsPerInch 是 pt 与英寸之比，也是分辨率为 1:1 时的 DPI。
const PointsPerInch = 72.0

// DefaultResolution 与常见屏幕渲染保持一致。
const DefaultResolution = 96.0

// ResolutionScale 返回在给定分辨率下字号的放大倍数；非正数视为默认分辨率。
func ResolutionScale(dpi float64) float64 {
	if dpi <= 0 {
		dpi = DefaultResolution
	}
	return dpi / PointsPerInch
}
