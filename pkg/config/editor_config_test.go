package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEditorYAML = `
appName: test_editor
grid:
  columns: 13
  rows: 13
cellSize: 40
originX: 10
originY: 20
windowWidth: 600
windowHeight: 600
saveDir: out/levels
exportDir: out/export
logFormat: json
`

// TestParseEditorConfig 测试解析完整配置
func TestParseEditorConfig(t *testing.T) {
	cfg, err := ParseEditorConfig([]byte(testEditorYAML))
	require.NoError(t, err)

	assert.Equal(t, "test_editor", cfg.AppName)
	assert.Equal(t, 13, cfg.Grid.Columns)
	assert.Equal(t, 40, cfg.CellSize)
	assert.Equal(t, 10, cfg.OriginX)
	assert.Equal(t, 20, cfg.OriginY)
	assert.Equal(t, "out/levels", cfg.SaveDir)
	assert.Equal(t, "out/export", cfg.ExportDir)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.Verbose)
}

// TestParseEditorConfigDefaults 测试空配置使用默认值
func TestParseEditorConfigDefaults(t *testing.T) {
	cfg, err := ParseEditorConfig([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, DefaultAppName, cfg.AppName)
	assert.Equal(t, 13, cfg.Grid.Columns)
	assert.Equal(t, 13, cfg.Grid.Rows)
	assert.Equal(t, DefaultCellSize, cfg.CellSize)
	assert.Equal(t, DefaultOriginX, cfg.OriginX)
	assert.Equal(t, DefaultSaveDir, cfg.SaveDir)
	assert.Equal(t, DefaultExportDir, cfg.ExportDir)
	assert.Equal(t, DefaultLogFormat, cfg.LogFormat)
}

// TestParseEditorConfigEnvOverrides 测试环境变量覆盖
func TestParseEditorConfigEnvOverrides(t *testing.T) {
	t.Setenv("FREEHIM_SAVE_DIR", "/tmp/levels")
	t.Setenv("FREEHIM_EXPORT_DIR", "/tmp/export")
	t.Setenv("FREEHIM_VERBOSE", "true")
	t.Setenv("FREEHIM_LOG_FORMAT", "console")

	cfg, err := ParseEditorConfig([]byte(testEditorYAML))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/levels", cfg.SaveDir)
	assert.Equal(t, "/tmp/export", cfg.ExportDir)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "console", cfg.LogFormat)
}

// TestParseEditorConfigInvalid 测试无效配置
func TestParseEditorConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "网格尺寸不是13x13", yaml: "grid: {columns: 9, rows: 5}"},
		{name: "未知日志格式", yaml: "logFormat: xml"},
		{name: "负的格子大小", yaml: "cellSize: -4"},
		{name: "网格超出窗口", yaml: "cellSize: 100\nwindowWidth: 400"},
		{name: "YAML 语法错误", yaml: "grid: [unterminated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEditorConfig([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

// TestLoadEditorConfig 测试从文件加载与嵌入默认配置回退
func TestLoadEditorConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testEditorYAML), 0644))

	cfg, err := LoadEditorConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "test_editor", cfg.AppName)

	cfg, err = LoadEditorConfig("", []byte("appName: fallback"))
	require.NoError(t, err)
	assert.Equal(t, "fallback", cfg.AppName)

	_, err = LoadEditorConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

// TestShippedEditorConfig 测试仓库自带的默认配置有效
func TestShippedEditorConfig(t *testing.T) {
	cfg, err := LoadEditorConfig(filepath.Join("..", "..", "data", "editor.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultAppName, cfg.AppName)
	assert.Equal(t, DefaultCellSize, cfg.CellSize)
}
