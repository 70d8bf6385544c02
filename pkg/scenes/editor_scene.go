package scenes

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/decker502/freehim-editor/pkg/editor"
	"github.com/decker502/freehim-editor/pkg/grid"
	"github.com/decker502/freehim-editor/pkg/level"
	"github.com/decker502/freehim-editor/pkg/settings"
)

// statusDuration 状态栏消息的显示时长（秒）
const statusDuration = 4.0

// EditorSceneConfig 编辑器场景的依赖
type EditorSceneConfig struct {
	Session   *editor.Session
	Settings  *settings.SettingsManager
	Layout    grid.Layout
	ExportDir string
	Logger    *zap.Logger // 可为 nil
}

// EditorScene 关卡编辑器场景
//
// 把键盘和鼠标输入翻译为编辑会话上的操作，并绘制网格、实体、连接格子和父子边。
// 所有错误都显示在状态栏中。
type EditorScene struct {
	session   *editor.Session
	settings  *settings.SettingsManager
	layout    grid.Layout
	exportDir string
	logger    *zap.Logger

	status      string
	statusError bool
	statusTTL   float64
}

// NewEditorScene 创建编辑器场景，并恢复上次使用的编辑模式
func NewEditorScene(cfg EditorSceneConfig) *EditorScene {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sm := cfg.Settings
	if sm == nil {
		sm = settings.NewSettingsManager(nil, logger)
	}
	s := &EditorScene{
		session:   cfg.Session,
		settings:  sm,
		layout:    cfg.Layout,
		exportDir: cfg.ExportDir,
		logger:    logger.With(zap.String("component", "editor_scene")),
	}
	if m, ok := editor.ParseMode(sm.Settings().LastMode); ok && m != editor.ModeNone {
		s.session.ToggleMode(m)
	}
	return s
}

// actionKind 场景可以执行的操作
type actionKind int

const (
	actionToggleMode actionKind = iota
	actionClick
	actionSelect
	actionToggleLocked
	actionCycleStress
	actionSave
	actionExport
	actionToggleGrid
)

// action 一次输入翻译成的操作
type action struct {
	kind actionKind
	mode editor.Mode
	pos  level.Position
}

// Update 处理输入并推进状态栏计时
func (s *EditorScene) Update(deltaTime float64) {
	for _, a := range s.collectInput() {
		s.report(s.apply(a))
	}
	s.tickStatus(deltaTime)
}

// tickStatus 状态栏消息超时后清除
func (s *EditorScene) tickStatus(deltaTime float64) {
	if s.statusTTL > 0 {
		s.statusTTL -= deltaTime
		if s.statusTTL <= 0 {
			s.status = ""
			s.statusError = false
		}
	}
}

// apply 执行一个操作
func (s *EditorScene) apply(a action) error {
	switch a.kind {
	case actionToggleMode:
		m := s.session.ToggleMode(a.mode)
		s.settings.SetLastMode(m.String())
		s.setStatus("mode: "+m.String(), false)
		return nil
	case actionClick:
		return s.session.Click(a.pos)
	case actionSelect:
		s.session.Select(a.pos)
		return nil
	case actionToggleLocked:
		node, err := s.activeNode()
		if err != nil {
			return err
		}
		return s.session.EditFields(node.Pos, editor.Fieldset{"locked": strconv.FormatBool(!node.Locked)})
	case actionCycleStress:
		node, err := s.activeNode()
		if err != nil {
			return err
		}
		current, _ := level.RatingForDamage(node.StressDamage)
		next := current.Next()
		if err := s.session.EditFields(node.Pos, editor.Fieldset{"stress_rating": next.String()}); err != nil {
			return err
		}
		s.setStatus("stress: "+next.String(), false)
		return nil
	case actionSave:
		return s.save()
	case actionExport:
		paths, err := s.session.ExportTargets(s.exportDir)
		if err != nil {
			return err
		}
		s.setStatus(fmt.Sprintf("exported %d target(s) to %s", len(paths), s.exportDir), false)
		return nil
	case actionToggleGrid:
		s.settings.SetShowGridLines(!s.settings.Settings().ShowGridLines)
		return nil
	default:
		return fmt.Errorf("unknown action %d", a.kind)
	}
}

func (s *EditorScene) save() error {
	if err := s.session.Save(s.session.Path()); err != nil {
		return err
	}
	s.settings.AddRecentFile(s.session.Path())
	if err := s.settings.Save(); err != nil {
		s.logger.Warn("failed to save settings", zap.Error(err))
	}
	s.setStatus("saved "+s.session.Path(), false)
	return nil
}

// OpenLevel 加载关卡文件并记入最近文件
//
// 加载失败时当前关卡保持不变，错误显示在状态栏上，编辑器继续可用。
func (s *EditorScene) OpenLevel(path string) error {
	if err := s.session.Load(path); err != nil {
		s.report(err)
		return err
	}
	s.settings.AddRecentFile(path)
	s.setStatus("opened "+path, false)
	return nil
}

func (s *EditorScene) activeNode() (*level.FactNode, error) {
	e, ok := s.session.Active()
	if !ok {
		return nil, fmt.Errorf("select a fact node first: %w", editor.ErrNoEntity)
	}
	node, ok := e.(*level.FactNode)
	if !ok {
		return nil, editor.ErrNotFactNode
	}
	return node, nil
}

// report 把错误显示在状态栏上
func (s *EditorScene) report(err error) {
	if err == nil {
		return
	}
	s.logger.Warn("edit failed", zap.Error(err))
	s.setStatus("error: "+err.Error(), true)
}

func (s *EditorScene) setStatus(msg string, isError bool) {
	s.status = msg
	s.statusError = isError
	s.statusTTL = statusDuration
}

// SaveOnExit 退出时保存偏好设置（关卡本身不会自动保存）
func (s *EditorScene) SaveOnExit() bool {
	s.settings.SetLastMode(s.session.Mode().String())
	if err := s.settings.Save(); err != nil {
		s.logger.Warn("failed to save settings on exit", zap.Error(err))
		return false
	}
	return true
}
