package scenes

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decker502/freehim-editor/pkg/editor"
	"github.com/decker502/freehim-editor/pkg/grid"
	"github.com/decker502/freehim-editor/pkg/level"
	"github.com/decker502/freehim-editor/pkg/settings"
)

func newTestScene(t *testing.T) (*EditorScene, *editor.Session) {
	t.Helper()
	session := editor.NewSession(editor.Options{SaveDir: t.TempDir()})
	scene := NewEditorScene(EditorSceneConfig{
		Session:   session,
		Settings:  settings.NewSettingsManager(nil, nil),
		Layout:    grid.Layout{OriginX: 24, OriginY: 56, CellSize: 48, Columns: 13, Rows: 13},
		ExportDir: filepath.Join(t.TempDir(), "export"),
	})
	return scene, session
}

// TestEditorSceneModeActions 测试模式切换与点击操作
func TestEditorSceneModeActions(t *testing.T) {
	scene, session := newTestScene(t)

	require.NoError(t, scene.apply(action{kind: actionToggleMode, mode: editor.ModeTarget}))
	assert.Equal(t, "target", scene.settings.Settings().LastMode)
	require.NoError(t, scene.apply(action{kind: actionClick, pos: level.Pos(1, 1)}))

	require.NoError(t, scene.apply(action{kind: actionToggleMode, mode: editor.ModeNode}))
	require.NoError(t, scene.apply(action{kind: actionClick, pos: level.Pos(2, 2)}))

	assert.Len(t, session.Level().Targets, 1)
	assert.Len(t, session.Level().Targets[0].FactNodes, 1)

	// 在已占用格子上放置：错误显示在状态栏
	scene.report(scene.apply(action{kind: actionClick, pos: level.Pos(2, 2)}))
	assert.True(t, scene.statusError)
	assert.Contains(t, scene.status, "occupied")
}

// TestEditorSceneNodeShortcuts 测试 L 与 P 快捷键
func TestEditorSceneNodeShortcuts(t *testing.T) {
	scene, session := newTestScene(t)
	_, err := session.PlaceEntity(level.KindFactNode, level.Pos(3, 3))
	require.NoError(t, err)

	// 未选中节点
	assert.ErrorIs(t, scene.apply(action{kind: actionToggleLocked}), editor.ErrNoEntity)

	require.NoError(t, scene.apply(action{kind: actionSelect, pos: level.Pos(3, 3)}))
	e, _ := session.EntityAt(level.Pos(3, 3))
	node := e.(*level.FactNode)

	require.NoError(t, scene.apply(action{kind: actionToggleLocked}))
	assert.False(t, node.Locked)

	want := []int{5, 10, 20, 0}
	for _, dmg := range want {
		require.NoError(t, scene.apply(action{kind: actionCycleStress}))
		assert.Equal(t, dmg, node.StressDamage)
		assert.Equal(t, dmg, node.PlayerStressDamage)
	}
}

// TestEditorSceneSaveAndExport 测试保存、导出与最近文件
func TestEditorSceneSaveAndExport(t *testing.T) {
	scene, session := newTestScene(t)
	_, err := session.PlaceEntity(level.KindTarget, level.Pos(0, 0))
	require.NoError(t, err)

	require.NoError(t, scene.apply(action{kind: actionSave}))
	assert.Equal(t, "JohnDoe.json", filepath.Base(session.Path()))
	assert.Equal(t, []string{session.Path()}, scene.settings.Settings().RecentFiles)

	require.NoError(t, scene.apply(action{kind: actionExport}))
	assert.FileExists(t, filepath.Join(scene.exportDir, "JohnDoe.json"))
	assert.False(t, scene.statusError)
}

// TestEditorSceneStatusExpires 测试状态栏消息超时清除
func TestEditorSceneStatusExpires(t *testing.T) {
	scene, _ := newTestScene(t)
	scene.setStatus("error: boom", true)

	scene.tickStatus(statusDuration / 2)
	assert.Equal(t, "error: boom", scene.status)

	scene.tickStatus(statusDuration)
	assert.Empty(t, scene.status)
	assert.False(t, scene.statusError)
}

// TestEditorSceneOpenLevel 测试打开关卡：失败时保留空关卡并在状态栏显示错误
func TestEditorSceneOpenLevel(t *testing.T) {
	scene, session := newTestScene(t)

	missing := filepath.Join(t.TempDir(), "missing.json")
	err := scene.OpenLevel(missing)
	var ioErr *editor.IoError
	require.ErrorAs(t, err, &ioErr)
	assert.True(t, scene.statusError)
	assert.Contains(t, scene.status, "error:")
	assert.Empty(t, session.Level().Targets)
	assert.Empty(t, scene.settings.Settings().RecentFiles)

	// 编辑器仍可继续使用
	require.NoError(t, scene.apply(action{kind: actionToggleMode, mode: editor.ModeTarget}))
	require.NoError(t, scene.apply(action{kind: actionClick, pos: level.Pos(1, 1)}))
	path := filepath.Join(t.TempDir(), "level.json")
	require.NoError(t, session.Save(path))

	other, _ := newTestScene(t)
	require.NoError(t, other.OpenLevel(path))
	assert.False(t, other.statusError)
	assert.Len(t, other.session.Level().Targets, 1)
	assert.Equal(t, []string{path}, other.settings.Settings().RecentFiles)
}

// TestEditorSceneRestoresMode 测试恢复上次的编辑模式
func TestEditorSceneRestoresMode(t *testing.T) {
	sm := settings.NewSettingsManager(nil, nil)
	sm.SetLastMode("delete")
	session := editor.NewSession(editor.Options{})
	NewEditorScene(EditorSceneConfig{Session: session, Settings: sm})
	assert.Equal(t, editor.ModeDelete, session.Mode())
}

// TestTruncateLabel 测试标签截断
func TestTruncateLabel(t *testing.T) {
	assert.Equal(t, "John", truncateLabel("John", 7))
	assert.Equal(t, "John D~", truncateLabel("John Doe 2", 7))
	assert.Equal(t, "J", truncateLabel("John", 1))
	assert.Empty(t, truncateLabel("John", 0))
}
