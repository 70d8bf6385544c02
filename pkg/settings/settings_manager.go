// Package settings 持久化编辑器的用户偏好（最近文件、上次使用的模式等）
package settings

import (
	"fmt"

	"github.com/quasilyte/gdata/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// MaxRecentFiles 最近文件列表的最大长度
const MaxRecentFiles = 8

// EditorSettings 编辑器偏好设置
//
// 与关卡文件无关，存放在系统的应用数据目录中。
type EditorSettings struct {
	RecentFiles   []string `yaml:"recentFiles"`   // 最近打开或保存的关卡，最新的在前
	LastMode      string   `yaml:"lastMode"`      // 上次退出时的编辑模式
	ShowGridLines bool     `yaml:"showGridLines"` // 是否绘制网格线
}

// DefaultSettings 返回默认设置
func DefaultSettings() *EditorSettings {
	return &EditorSettings{
		RecentFiles:   []string{},
		LastMode:      "none",
		ShowGridLines: true,
	}
}

// 存储路径
const (
	settingsObject   = "settings"
	settingsProperty = "editor"
)

// SettingsManager 设置管理器
type SettingsManager struct {
	gdataManager *gdata.Manager // 可为 nil（降级模式，仅内存设置）
	settings     *EditorSettings
	logger       *zap.Logger
}

// NewSettingsManager 创建设置管理器并尝试加载已保存的设置
//
// 参数：
//   - gdataManager: gdata 存储管理器，可为 nil（降级模式）
//   - logger: 日志记录器，可为 nil
//
// 加载失败不是致命错误：记录警告后使用默认设置。
func NewSettingsManager(gdataManager *gdata.Manager, logger *zap.Logger) *SettingsManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	sm := &SettingsManager{
		gdataManager: gdataManager,
		settings:     DefaultSettings(),
		logger:       logger.With(zap.String("component", "settings")),
	}
	if err := sm.Load(); err != nil {
		sm.logger.Warn("failed to load settings, using defaults", zap.Error(err))
	}
	return sm
}

// Load 从 gdata 加载设置，不存在时使用默认设置
func (sm *SettingsManager) Load() error {
	if sm.gdataManager == nil || !sm.gdataManager.ObjectPropExists(settingsObject, settingsProperty) {
		sm.settings = DefaultSettings()
		return nil
	}

	data, err := sm.gdataManager.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to load settings: %w", err)
	}

	loaded := DefaultSettings()
	if err := yaml.Unmarshal(data, loaded); err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if loaded.RecentFiles == nil {
		loaded.RecentFiles = []string{}
	}
	if len(loaded.RecentFiles) > MaxRecentFiles {
		loaded.RecentFiles = loaded.RecentFiles[:MaxRecentFiles]
	}

	sm.settings = loaded
	sm.logger.Debug("settings loaded", zap.Int("recent_files", len(loaded.RecentFiles)))
	return nil
}

// Save 保存设置，降级模式下直接返回 nil
func (sm *SettingsManager) Save() error {
	if sm.gdataManager == nil {
		return nil
	}

	data, err := yaml.Marshal(sm.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := sm.gdataManager.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	sm.logger.Debug("settings saved")
	return nil
}

// Settings 返回当前设置
func (sm *SettingsManager) Settings() *EditorSettings {
	return sm.settings
}

// AddRecentFile 将文件移到最近文件列表的最前面
//
// 已存在的条目会被移动而不是重复；超过 MaxRecentFiles 时丢弃最旧的条目。
// 仅修改内存中的设置，需调用 Save 持久化。
func (sm *SettingsManager) AddRecentFile(path string) {
	if path == "" {
		return
	}
	files := make([]string, 0, MaxRecentFiles)
	files = append(files, path)
	for _, f := range sm.settings.RecentFiles {
		if f != path && len(files) < MaxRecentFiles {
			files = append(files, f)
		}
	}
	sm.settings.RecentFiles = files
}

// SetLastMode 记录编辑模式名称
func (sm *SettingsManager) SetLastMode(mode string) {
	sm.settings.LastMode = mode
}

// SetShowGridLines 设置是否绘制网格线
func (sm *SettingsManager) SetShowGridLines(show bool) {
	sm.settings.ShowGridLines = show
}
