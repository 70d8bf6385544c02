package scenes

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/decker502/freehim-editor/pkg/level"
)

var (
	colorBackground     = color.RGBA{R: 32, G: 34, B: 40, A: 255}
	colorGridLine       = color.RGBA{R: 70, G: 74, B: 84, A: 255}
	colorTarget         = color.RGBA{R: 196, G: 64, B: 64, A: 255}
	colorNodeLocked     = color.RGBA{R: 84, G: 104, B: 148, A: 255}
	colorNodeUnlocked   = color.RGBA{R: 80, G: 160, B: 96, A: 255}
	colorConnection     = color.RGBA{R: 120, G: 120, B: 60, A: 160}
	colorConnectionEdit = color.RGBA{R: 230, G: 210, B: 80, A: 220}
	colorEdge           = color.RGBA{R: 230, G: 230, B: 230, A: 200}
	colorActive         = color.RGBA{R: 255, G: 220, B: 0, A: 255}
	colorStatusError    = color.RGBA{R: 120, G: 30, B: 30, A: 255}
)

// debugGlyphWidth ebitenutil 调试字体的字符宽度（像素）
const debugGlyphWidth = 6

const helpLine = "1 target  2 node  3 delete  4 draw | L lock  P stress  G grid | Ctrl+S save  Ctrl+E export"

// Draw 绘制编辑器画面
func (s *EditorScene) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)

	if s.settings.Settings().ShowGridLines {
		s.drawGridLines(screen)
	}
	s.drawConnectionCells(screen)
	s.drawEdges(screen)
	s.drawEntities(screen)
	s.drawStatus(screen)
}

func (s *EditorScene) drawGridLines(screen *ebiten.Image) {
	l := s.layout
	x0, y0 := float32(l.OriginX), float32(l.OriginY)
	x1, y1 := x0+float32(l.Width()), y0+float32(l.Height())
	for c := 0; c <= l.Columns; c++ {
		x := x0 + float32(float64(c)*l.CellSize)
		vector.StrokeLine(screen, x, y0, x, y1, 1, colorGridLine, false)
	}
	for r := 0; r <= l.Rows; r++ {
		y := y0 + float32(float64(r)*l.CellSize)
		vector.StrokeLine(screen, x0, y, x1, y, 1, colorGridLine, false)
	}
}

func (s *EditorScene) drawConnectionCells(screen *ebiten.Image) {
	lvl := s.session.Level()
	inset := float32(s.layout.CellSize) / 4
	size := float32(s.layout.CellSize) - 2*inset

	for _, n := range lvl.FactNodes() {
		clr := colorConnection
		if lvl.Drawing && lvl.Active != nil && *lvl.Active == n.Pos {
			clr = colorConnectionEdit
		}
		for _, c := range n.ConnectionToParent.Sorted() {
			x, y := s.layout.CellToScreen(c)
			vector.DrawFilledRect(screen, float32(x)+inset, float32(y)+inset, size, size, clr, false)
		}
	}
}

func (s *EditorScene) drawEdges(screen *ebiten.Image) {
	for _, e := range s.session.Edges() {
		px, py := s.layout.CellCenter(e.Parent)
		cx, cy := s.layout.CellCenter(e.Child)
		vector.StrokeLine(screen, float32(px), float32(py), float32(cx), float32(cy), 2, colorEdge, true)
	}
}

func (s *EditorScene) drawEntities(screen *ebiten.Image) {
	lvl := s.session.Level()
	inset := float32(3)
	size := float32(s.layout.CellSize) - 2*inset

	for _, e := range lvl.Entities() {
		x, y := s.layout.CellToScreen(e.Position())
		var (
			clr   color.Color
			label string
		)
		switch v := e.(type) {
		case *level.Target:
			clr, label = colorTarget, v.Name
		case *level.FactNode:
			clr, label = colorNodeUnlocked, v.Title
			if v.Locked {
				clr = colorNodeLocked
			}
			if label == "" {
				label = v.Name
			}
		}
		vector.DrawFilledRect(screen, float32(x)+inset, float32(y)+inset, size, size, clr, false)
		ebitenutil.DebugPrintAt(screen, truncateLabel(label, int(size)/debugGlyphWidth), int(x)+4, int(y)+4)
	}

	if lvl.Active != nil {
		x, y := s.layout.CellToScreen(*lvl.Active)
		vector.StrokeRect(screen, float32(x)+1, float32(y)+1, float32(s.layout.CellSize)-2, float32(s.layout.CellSize)-2, 2, colorActive, false)
	}
}

func (s *EditorScene) drawStatus(screen *ebiten.Image) {
	file := s.session.Path()
	if file == "" {
		file = "(unsaved)"
	}
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("mode: %s   file: %s", s.session.Mode(), file), 8, 4)

	if s.status != "" {
		if s.statusError {
			w := float32(len(s.status)*debugGlyphWidth + 8)
			vector.DrawFilledRect(screen, 4, 22, w, 18, colorStatusError, false)
		}
		ebitenutil.DebugPrintAt(screen, s.status, 8, 24)
	}

	helpY := int(s.layout.OriginY+s.layout.Height()) + 8
	ebitenutil.DebugPrintAt(screen, helpLine, int(s.layout.OriginX), helpY)
}

// truncateLabel 把标签截断到 limit 个字符以内
func truncateLabel(label string, limit int) string {
	r := []rune(label)
	if limit <= 0 {
		return ""
	}
	if len(r) <= limit {
		return label
	}
	if limit == 1 {
		return string(r[:1])
	}
	return string(r[:limit-1]) + "~"
}
