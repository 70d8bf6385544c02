package grid

import "github.com/decker502/freehim-editor/pkg/level"

// Layout 网格在屏幕上的布局参数
// 用于编辑器界面的鼠标坐标与网格坐标互相转换
type Layout struct {
	OriginX  float64 // 网格左上角X坐标
	OriginY  float64 // 网格左上角Y坐标
	CellSize float64 // 每格边长（像素）
	Columns  int     // 网格列数
	Rows     int     // 网格行数
}

// ScreenToCell 将鼠标屏幕坐标转换为网格坐标
// 参数:
//   - x, y: 鼠标的屏幕坐标
//
// 返回:
//   - level.Position: 格子坐标
//   - bool: 是否在有效网格范围内
func (l Layout) ScreenToCell(x, y int) (level.Position, bool) {
	fx := float64(x)
	fy := float64(y)

	endX := l.OriginX + float64(l.Columns)*l.CellSize
	endY := l.OriginY + float64(l.Rows)*l.CellSize
	if l.CellSize <= 0 || fx < l.OriginX || fx >= endX || fy < l.OriginY || fy >= endY {
		return level.Position{}, false
	}

	col := int((fx - l.OriginX) / l.CellSize)
	row := int((fy - l.OriginY) / l.CellSize)

	// 边界检查（防止浮点数计算误差导致的越界）
	col = clamp(col, 0, l.Columns-1)
	row = clamp(row, 0, l.Rows-1)

	return level.Pos(col, row), true
}

// CellToScreen 返回格子左上角的屏幕坐标
func (l Layout) CellToScreen(p level.Position) (x, y float64) {
	return l.OriginX + float64(p.X)*l.CellSize, l.OriginY + float64(p.Y)*l.CellSize
}

// CellCenter 返回格子中心的屏幕坐标
func (l Layout) CellCenter(p level.Position) (x, y float64) {
	x, y = l.CellToScreen(p)
	return x + l.CellSize/2, y + l.CellSize/2
}

// Width 返回网格总宽度（像素）
func (l Layout) Width() float64 { return float64(l.Columns) * l.CellSize }

// Height 返回网格总高度（像素）
func (l Layout) Height() float64 { return float64(l.Rows) * l.CellSize }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
