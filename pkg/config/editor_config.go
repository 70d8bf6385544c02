package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/decker502/freehim-editor/pkg/level"
)

// 默认值（YAML 中缺省或为零值时使用）
const (
	DefaultAppName      = "freehim_editor"
	DefaultCellSize     = 48
	DefaultOriginX      = 24
	DefaultOriginY      = 56
	DefaultWindowWidth  = 672
	DefaultWindowHeight = 720
	DefaultSaveDir      = "levels"
	DefaultExportDir    = "export"
	DefaultLogFormat    = "console"
)

// GridConfig 网格尺寸
type GridConfig struct {
	Columns int `yaml:"columns"`
	Rows    int `yaml:"rows"`
}

// EditorConfig 编辑器配置
//
// 配置文件位置: data/editor.yaml（同时嵌入到可执行文件中作为默认配置）
type EditorConfig struct {
	AppName string     `yaml:"appName" validate:"required"`
	Grid    GridConfig `yaml:"grid"`

	// 网格布局（像素）
	CellSize     int `yaml:"cellSize" validate:"gt=0"`
	OriginX      int `yaml:"originX" validate:"gte=0"`
	OriginY      int `yaml:"originY" validate:"gte=0"`
	WindowWidth  int `yaml:"windowWidth" validate:"gt=0"`
	WindowHeight int `yaml:"windowHeight" validate:"gt=0"`

	SaveDir   string `yaml:"saveDir" env:"FREEHIM_SAVE_DIR"`
	ExportDir string `yaml:"exportDir" env:"FREEHIM_EXPORT_DIR"`
	Verbose   bool   `yaml:"verbose" env:"FREEHIM_VERBOSE"`
	LogFormat string `yaml:"logFormat" env:"FREEHIM_LOG_FORMAT" validate:"oneof=console json"`
}

var configValidator = validator.New()

// LoadEditorConfig 加载编辑器配置
//
// 参数：
//   - path: 配置文件路径，为空时使用 fallback
//   - fallback: 嵌入的默认配置内容
//
// 返回：
//   - *EditorConfig: 应用了环境变量覆盖和默认值的配置
//   - error: 读取、解析或校验失败时返回错误
func LoadEditorConfig(path string, fallback []byte) (*EditorConfig, error) {
	data := fallback
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read editor config: %w", err)
		}
		data = raw
	}
	return ParseEditorConfig(data)
}

// ParseEditorConfig 解析 YAML 配置并应用环境变量覆盖
func ParseEditorConfig(data []byte) (*EditorConfig, error) {
	var cfg EditorConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse editor config: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid editor config: %w", err)
	}
	return &cfg, nil
}

// applyDefaults 为缺省字段填充默认值
func (c *EditorConfig) applyDefaults() {
	if c.AppName == "" {
		c.AppName = DefaultAppName
	}
	if c.Grid.Columns == 0 {
		c.Grid.Columns = level.GridColumns
	}
	if c.Grid.Rows == 0 {
		c.Grid.Rows = level.GridRows
	}
	if c.CellSize == 0 {
		c.CellSize = DefaultCellSize
	}
	if c.OriginX == 0 && c.OriginY == 0 {
		c.OriginX, c.OriginY = DefaultOriginX, DefaultOriginY
	}
	if c.WindowWidth == 0 {
		c.WindowWidth = DefaultWindowWidth
	}
	if c.WindowHeight == 0 {
		c.WindowHeight = DefaultWindowHeight
	}
	if c.SaveDir == "" {
		c.SaveDir = DefaultSaveDir
	}
	if c.ExportDir == "" {
		c.ExportDir = DefaultExportDir
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
}

// Validate 验证配置有效性
//
// 关卡格式目前只支持 13x13 网格，其他尺寸直接拒绝。
func (c *EditorConfig) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}
	if c.Grid.Columns != level.GridColumns || c.Grid.Rows != level.GridRows {
		return fmt.Errorf("grid must be %dx%d, got %dx%d",
			level.GridColumns, level.GridRows, c.Grid.Columns, c.Grid.Rows)
	}
	gridRight := c.OriginX + c.Grid.Columns*c.CellSize
	gridBottom := c.OriginY + c.Grid.Rows*c.CellSize
	if gridRight > c.WindowWidth || gridBottom > c.WindowHeight {
		return fmt.Errorf("grid (%dx%d px at %d,%d) does not fit in a %dx%d window",
			c.Grid.Columns*c.CellSize, c.Grid.Rows*c.CellSize, c.OriginX, c.OriginY,
			c.WindowWidth, c.WindowHeight)
	}
	return nil
}
