package editor

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/decker502/freehim-editor/pkg/level"
)

// Mode 编辑模式，对应工具栏上的四个按键（1-4）
type Mode int

const (
	ModeNone Mode = iota
	ModeTarget
	ModeNode
	ModeDelete
	ModeDraw
)

var modeNames = [...]string{"none", "target", "node", "delete", "draw"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode 解析模式名称，未知名称返回 ModeNone 和 false
func ParseMode(s string) (Mode, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range modeNames {
		if name == s {
			return Mode(i), true
		}
	}
	return ModeNone, false
}

// Mode 返回当前编辑模式
func (s *Session) Mode() Mode {
	return s.mode
}

// ToggleMode 切换编辑模式
//
// 再次按下当前模式的按键时回到 ModeNone。进入 ModeDraw 时开始绘制，离开时结束绘制。
//
// 返回：
//   - Mode: 切换后的模式
func (s *Session) ToggleMode(m Mode) Mode {
	next := m
	if s.mode == m {
		next = ModeNone
	}
	if s.mode == ModeDraw && next != ModeDraw {
		s.EndDrawing()
	}
	if next == ModeDraw {
		if err := s.BeginDrawing(); err != nil {
			// 没有选中节点时仍然进入绘制模式，点击节点即可开始绘制
			s.logger.Debug("draw mode without active node", zap.Error(err))
		}
	}
	s.mode = next
	s.logger.Debug("mode changed", zap.Stringer("mode", next))
	return next
}

// Click 按当前模式处理一次网格点击
//
//   - ModeNone: 选中格子上的实体（空格子取消选中）
//   - ModeTarget / ModeNode: 放置实体并选中
//   - ModeDelete: 移除实体
//   - ModeDraw: 点击空格子切换当前节点的连接格子，点击其他节点则改为绘制该节点
func (s *Session) Click(pos level.Position) error {
	switch s.mode {
	case ModeTarget:
		return s.placeAndSelect(level.KindTarget, pos)
	case ModeNode:
		return s.placeAndSelect(level.KindFactNode, pos)
	case ModeDelete:
		return s.RemoveEntity(pos)
	case ModeDraw:
		if e, ok := s.index.At(pos); ok {
			if e.Kind() != level.KindFactNode {
				return fmt.Errorf("cannot draw from %s at %s: %w", e.Kind(), pos, ErrNotFactNode)
			}
			s.Select(pos)
			return s.BeginDrawing()
		}
		active, ok := s.Active()
		if !ok {
			return fmt.Errorf("select a fact node before drawing: %w", ErrNoEntity)
		}
		return s.ToggleConnectionCell(active.Position(), pos)
	default:
		s.Select(pos)
		return nil
	}
}

func (s *Session) placeAndSelect(kind level.Kind, pos level.Position) error {
	p, err := s.PlaceEntity(kind, pos)
	if err != nil {
		return err
	}
	s.Select(p)
	return nil
}
