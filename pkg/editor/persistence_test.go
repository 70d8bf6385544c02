package editor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/decker502/freehim-editor/pkg/level"
)

// buildTwoTargetLevel 两个目标 A、B，各有一个通过连接格子连到自己的节点
func buildTwoTargetLevel(t *testing.T, s *Session) {
	t.Helper()
	mustPlace(t, s, level.KindTarget, level.Pos(0, 0))
	require.NoError(t, s.EditFields(level.Pos(0, 0), Fieldset{"name": "A"}))
	mustPlace(t, s, level.KindTarget, level.Pos(8, 8))
	require.NoError(t, s.EditFields(level.Pos(8, 8), Fieldset{"name": "B", "neighbors": "A"}))

	s.Select(level.Pos(0, 0))
	mustPlace(t, s, level.KindFactNode, level.Pos(0, 2))
	require.NoError(t, s.ToggleConnectionCell(level.Pos(0, 2), level.Pos(0, 1)))

	s.Select(level.Pos(8, 8))
	mustPlace(t, s, level.KindFactNode, level.Pos(8, 10))
	require.NoError(t, s.ToggleConnectionCell(level.Pos(8, 10), level.Pos(8, 9)))
}

// TestSaveLoadRoundTrip 测试保存后重新加载得到相同的关卡
func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestSession(t)
	buildTwoTargetLevel(t, s)
	edges := s.Edges()
	require.Len(t, edges, 2)

	path := filepath.Join(t.TempDir(), "level.json")
	require.NoError(t, s.Save(path))
	assert.Equal(t, path, s.Path())

	loaded := newTestSession(t)
	require.NoError(t, loaded.Load(path))
	require.NoError(t, loaded.Check())

	lvl := loaded.Level()
	require.Len(t, lvl.Targets, 2)
	assert.Equal(t, "A", lvl.Targets[0].Name)
	assert.Equal(t, "B", lvl.Targets[1].Name)
	assert.Equal(t, []string{"A"}, lvl.Targets[1].Neighbors)
	require.Len(t, lvl.Targets[0].FactNodes, 1)
	require.Len(t, lvl.Targets[1].FactNodes, 1)
	assert.Equal(t, level.Pos(0, 2), lvl.Targets[0].FactNodes[0].Pos)
	assert.Equal(t, level.Pos(8, 10), lvl.Targets[1].FactNodes[0].Pos)
	assert.Equal(t, edges, loaded.Edges())

	// 再次保存得到相同的字节
	first, err := os.ReadFile(path)
	require.NoError(t, err)
	again := filepath.Join(t.TempDir(), "again.json")
	require.NoError(t, loaded.Save(again))
	second, err := os.ReadFile(again)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

// TestSaveLoadKeepsEdges 测试最后一次编辑为连接格子切换时，保存再加载得到相同的边
func TestSaveLoadKeepsEdges(t *testing.T) {
	tests := []struct {
		name  string
		build func(t *testing.T, s *Session)
	}{
		{name: "两个目标各一个节点", build: buildTwoTargetLevel},
		{name: "相向路径 A 先画", build: func(t *testing.T, s *Session) { drawOpposingPaths(t, s, true) }},
		{name: "相向路径 B 先画", build: func(t *testing.T, s *Session) { drawOpposingPaths(t, s, false) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t)
			tt.build(t, s)
			before := s.Edges()
			require.NotEmpty(t, before)

			path := filepath.Join(t.TempDir(), "level.json")
			require.NoError(t, s.Save(path))

			loaded := newTestSession(t)
			require.NoError(t, loaded.Load(path))
			assert.Equal(t, before, loaded.Edges())
			for _, e := range before {
				assert.Equal(t, s.Children(e.Parent), loaded.Children(e.Parent))
			}
		})
	}
}

// TestSaveWritesDerivedChildren 测试保存的文件包含派生的 children 字段
func TestSaveWritesDerivedChildren(t *testing.T) {
	s := newTestSession(t)
	mustPlace(t, s, level.KindTarget, level.Pos(0, 0))
	mustPlace(t, s, level.KindFactNode, level.Pos(0, 2))
	mustPlace(t, s, level.KindFactNode, level.Pos(0, 4))
	require.NoError(t, s.EditFields(level.Pos(0, 4), Fieldset{"name": "leaf"}))
	require.NoError(t, s.ToggleConnectionCell(level.Pos(0, 2), level.Pos(0, 1)))
	require.NoError(t, s.ToggleConnectionCell(level.Pos(0, 4), level.Pos(0, 3)))

	path := filepath.Join(t.TempDir(), "level.json")
	require.NoError(t, s.Save(path))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	root := gjson.ParseBytes(raw)
	assert.Equal(t, "leaf", root.Get("targets.0.factnodes.0.children.0.name").String())
	assert.True(t, root.Get("factnodes").IsArray())
}

// TestSaveDefaultPath 测试空路径保存到配置目录下的默认文件名
func TestSaveDefaultPath(t *testing.T) {
	dir := t.TempDir()
	s := NewSession(Options{SaveDir: dir})

	require.NoError(t, s.Save(""))
	assert.FileExists(t, filepath.Join(dir, "level.json"))

	mustPlace(t, s, level.KindTarget, level.Pos(0, 0))
	require.NoError(t, s.Save(""))
	assert.Equal(t, filepath.Join(dir, "JohnDoe.json"), s.Path())
	assert.FileExists(t, s.Path())

	// 不留下临时文件
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

// TestDefaultFileName 测试默认文件名
func TestDefaultFileName(t *testing.T) {
	lvl := level.NewLevel("")
	assert.Equal(t, "level.json", DefaultFileName(lvl))

	lvl.Name = "Night Shift"
	assert.Equal(t, "NightShift.json", DefaultFileName(lvl))

	tg := level.NewTarget(level.Pos(0, 0))
	tg.Name = "Mary Ann Smith"
	lvl.Targets = append(lvl.Targets, tg)
	assert.Equal(t, "MaryAnnSmith.json", DefaultFileName(lvl))
}

// TestLoadFailuresKeepLevel 测试加载失败时当前关卡保持不变
func TestLoadFailuresKeepLevel(t *testing.T) {
	dir := t.TempDir()
	s := newTestSession(t)
	buildTwoTargetLevel(t, s)
	before := s.Level()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	tests := []struct {
		name     string
		path     string
		wantIo   bool
		wantPath string
	}{
		{name: "文件不存在", path: filepath.Join(dir, "missing.json"), wantIo: true},
		{name: "格式错误", path: write("bad.json", "{not json")},
		{name: "缺少必填字段", path: write("missing_field.json", `{"targets":[{"name":"A","pos":[0,0]}]}`), wantPath: "targets[0].suspicion"},
		{name: "同一格子两个实体", path: write("dup.json", `{"targets":[
			{"name":"A","pos":[1,1],"suspicion":1,"max_stress":100,"starting_stress":0,"neighbors":[],"combos":[],"factnodes":[]},
			{"name":"B","pos":[1,1],"suspicion":1,"max_stress":100,"starting_stress":0,"neighbors":[],"combos":[],"factnodes":[]}
		]}`), wantPath: "pos"},
		{name: "越界", path: write("oob.json", `{"targets":[
			{"name":"A","pos":[13,1],"suspicion":1,"max_stress":100,"starting_stress":0,"neighbors":[],"combos":[],"factnodes":[]}
		]}`), wantPath: "pos"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Load(tt.path)
			require.Error(t, err)
			if tt.wantIo {
				var ioErr *IoError
				require.ErrorAs(t, err, &ioErr)
				assert.Equal(t, "read", ioErr.Op)
				assert.True(t, errors.Is(err, os.ErrNotExist))
			} else {
				var schemaErr *level.SchemaError
				require.ErrorAs(t, err, &schemaErr)
				if tt.wantPath != "" {
					assert.Equal(t, tt.wantPath, schemaErr.Path)
				}
			}
			assert.Same(t, before, s.Level())
			assert.Len(t, s.Edges(), 2)
		})
	}
}

// TestLoadLegacyTarget 测试加载旧版单目标文件
func TestLoadLegacyTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.json")
	content := `{"name":"John Doe","pos":[1,1],"suspicion":"2","max_stress":100,"starting_stress":0,
		"neighbors":[],"combos":[],
		"factnodes":[{"name":"n","title":"t","pos":[2,2],"children":[],"connection_to_parent":[[2,1]],
			"player_stress_dam":5,"stress_dam":5,"summary":"","contents":"","locked":"T"}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	lvl, err := LoadLevel(path)
	require.NoError(t, err)
	require.Len(t, lvl.Targets, 1)
	assert.Equal(t, 2, lvl.Targets[0].Suspicion)

	s := newTestSession(t)
	require.NoError(t, s.Load(path))
	assert.Equal(t, []level.Position{level.Pos(1, 1)}, s.Parents(level.Pos(2, 2)))
}

// TestExportTargets 测试按目标导出文件
func TestExportTargets(t *testing.T) {
	s := newTestSession(t)
	buildTwoTargetLevel(t, s)
	require.NoError(t, s.EditFields(level.Pos(0, 0), Fieldset{"name": "Anna Lee"}))

	dir := filepath.Join(t.TempDir(), "export")
	paths, err := s.ExportTargets(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "AnnaLee.json"), filepath.Join(dir, "B.json")}, paths)

	raw, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	tg, err := level.ParseTarget(raw)
	require.NoError(t, err)
	assert.Equal(t, "Anna Lee", tg.Name)
	require.Len(t, tg.FactNodes, 1)
	assert.Equal(t, level.Pos(0, 2), tg.FactNodes[0].Pos)
}

// TestExportTargetsNameCollision 测试两个目标导出为同一文件名时报错
func TestExportTargetsNameCollision(t *testing.T) {
	s := newTestSession(t)
	mustPlace(t, s, level.KindTarget, level.Pos(0, 0))
	mustPlace(t, s, level.KindTarget, level.Pos(4, 0))
	require.NoError(t, s.EditFields(level.Pos(0, 0), Fieldset{"name": "Jo Ann"}))
	require.NoError(t, s.EditFields(level.Pos(4, 0), Fieldset{"name": "JoAnn"}))

	dir := t.TempDir()
	_, err := s.ExportTargets(dir)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
