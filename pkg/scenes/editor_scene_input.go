package scenes

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/decker502/freehim-editor/pkg/editor"
)

// modeKeys 数字键 1-4 对应的编辑模式
var modeKeys = []struct {
	key  ebiten.Key
	mode editor.Mode
}{
	{ebiten.Key1, editor.ModeTarget},
	{ebiten.Key2, editor.ModeNode},
	{ebiten.Key3, editor.ModeDelete},
	{ebiten.Key4, editor.ModeDraw},
}

// collectInput 把本帧的键盘和鼠标输入翻译为操作
func (s *EditorScene) collectInput() []action {
	var out []action

	for _, mk := range modeKeys {
		if inpututil.IsKeyJustPressed(mk.key) {
			out = append(out, action{kind: actionToggleMode, mode: mk.mode})
		}
	}

	ctrl := ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyMeta)
	switch {
	case ctrl && inpututil.IsKeyJustPressed(ebiten.KeyS):
		out = append(out, action{kind: actionSave})
	case ctrl && inpututil.IsKeyJustPressed(ebiten.KeyE):
		out = append(out, action{kind: actionExport})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyL) {
		out = append(out, action{kind: actionToggleLocked})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		out = append(out, action{kind: actionCycleStress})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		out = append(out, action{kind: actionToggleGrid})
	}

	if x, y, ok := primaryPress(); ok {
		if pos, inGrid := s.layout.ScreenToCell(x, y); inGrid {
			out = append(out, action{kind: actionClick, pos: pos})
		}
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
		if pos, inGrid := s.layout.ScreenToCell(ebiten.CursorPosition()); inGrid {
			out = append(out, action{kind: actionSelect, pos: pos})
		}
	}
	return out
}

// primaryPress 返回本帧刚发生的触摸或鼠标左键点击位置，触摸优先
func primaryPress() (x, y int, ok bool) {
	if touchIDs := inpututil.AppendJustPressedTouchIDs(nil); len(touchIDs) > 0 {
		x, y = ebiten.TouchPosition(touchIDs[0])
		return x, y, true
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y = ebiten.CursorPosition()
		return x, y, true
	}
	return 0, 0, false
}
