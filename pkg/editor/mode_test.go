package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decker502/freehim-editor/pkg/level"
)

// TestToggleMode 测试再次按下同一模式回到 ModeNone
func TestToggleMode(t *testing.T) {
	s := newTestSession(t)
	assert.Equal(t, ModeNone, s.Mode())

	assert.Equal(t, ModeTarget, s.ToggleMode(ModeTarget))
	assert.Equal(t, ModeNode, s.ToggleMode(ModeNode))
	assert.Equal(t, ModeNone, s.ToggleMode(ModeNode))
	assert.Equal(t, ModeNone, s.Mode())
}

// TestClickDispatch 测试点击按模式分发
func TestClickDispatch(t *testing.T) {
	s := newTestSession(t)

	s.ToggleMode(ModeTarget)
	require.NoError(t, s.Click(level.Pos(1, 1)))
	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, level.KindTarget, active.Kind())

	s.ToggleMode(ModeNode)
	require.NoError(t, s.Click(level.Pos(2, 2)))
	assert.Len(t, s.Level().Targets[0].FactNodes, 1)

	// 进入绘制模式，选中的节点开始绘制
	s.ToggleMode(ModeDraw)
	assert.True(t, s.Level().Drawing)
	require.NoError(t, s.Click(level.Pos(2, 1)))
	assert.Equal(t, []level.Position{level.Pos(1, 1)}, s.Parents(level.Pos(2, 2)))

	// 绘制模式下点击目标报错
	assert.ErrorIs(t, s.Click(level.Pos(1, 1)), ErrNotFactNode)

	s.ToggleMode(ModeDraw)
	assert.False(t, s.Level().Drawing)

	s.ToggleMode(ModeDelete)
	require.NoError(t, s.Click(level.Pos(1, 1)))
	assert.Empty(t, s.Level().Targets)
	assert.Empty(t, s.Edges())

	// 无模式时点击只选中
	s.ToggleMode(ModeDelete)
	require.NoError(t, s.Click(level.Pos(2, 2)))
	active, ok = s.Active()
	require.True(t, ok)
	assert.Equal(t, level.Pos(2, 2), active.Position())
	require.NoError(t, s.Check())
}

// TestClickDrawWithoutNode 测试未选中节点时绘制报错
func TestClickDrawWithoutNode(t *testing.T) {
	s := newTestSession(t)
	s.ToggleMode(ModeDraw)
	assert.ErrorIs(t, s.Click(level.Pos(4, 4)), ErrNoEntity)

	// 点击节点即开始为它绘制
	s.ToggleMode(ModeDraw)
	s.ToggleMode(ModeNode)
	require.NoError(t, s.Click(level.Pos(5, 5)))
	s.ToggleMode(ModeNone)
	s.Select(level.Pos(9, 9))
	s.ToggleMode(ModeDraw)
	require.NoError(t, s.Click(level.Pos(5, 5)))
	assert.True(t, s.Level().Drawing)
	require.NoError(t, s.Click(level.Pos(5, 4)))

	e, _ := s.EntityAt(level.Pos(5, 5))
	assert.True(t, e.(*level.FactNode).ConnectionToParent.Has(level.Pos(5, 4)))
}

// TestParseMode 测试模式名称解析
func TestParseMode(t *testing.T) {
	for m := ModeNone; m <= ModeDraw; m++ {
		got, ok := ParseMode(m.String())
		assert.True(t, ok)
		assert.Equal(t, m, got)
	}
	_, ok := ParseMode("paint")
	assert.False(t, ok)
}
