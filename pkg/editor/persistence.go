package editor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/decker502/freehim-editor/pkg/grid"
	"github.com/decker502/freehim-editor/pkg/level"
)

// LoadLevel 读取并解析关卡文件
//
// 解析后把所有实体放入一个新的空间索引以检查坐标冲突，同一格子上有两个实体时返回 *level.SchemaError。
//
// 返回：
//   - *level.Level: 解析后的关卡
//   - error: *IoError 或 *level.SchemaError
func LoadLevel(path string) (*level.Level, error) {
	lvl, _, err := loadLevel(path)
	return lvl, err
}

func loadLevel(path string) (*level.Level, *grid.Index, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &IoError{Op: "read", Path: path, Err: err}
	}
	lvl, err := level.ParseLevel(raw)
	if err != nil {
		return nil, nil, err
	}
	idx, err := buildIndex(lvl)
	if err != nil {
		return nil, nil, err
	}
	return lvl, idx, nil
}

// buildIndex 为关卡建立空间索引
func buildIndex(lvl *level.Level) (*grid.Index, error) {
	idx := grid.NewIndex(level.GridColumns, level.GridRows)
	for _, e := range lvl.Entities() {
		err := idx.Place(e)
		var occupied *grid.OccupiedCellError
		var oob *grid.OutOfBoundsError
		switch {
		case err == nil:
		case errors.As(err, &occupied):
			return nil, &level.SchemaError{
				Path:   "pos",
				Reason: fmt.Sprintf("%s and %s share cell %s", occupied.Occupant.Kind(), e.Kind(), occupied.Pos),
				Err:    err,
			}
		case errors.As(err, &oob):
			return nil, &level.SchemaError{Path: "pos", Reason: err.Error(), Err: err}
		default:
			return nil, err
		}
	}
	return idx, nil
}

// Load 从文件加载关卡，替换当前关卡
//
// 任何失败都保持当前关卡不变。
func (s *Session) Load(path string) error {
	lvl, idx, err := loadLevel(path)
	if err != nil {
		s.logger.Warn("load failed", zap.String("path", path), zap.Error(err))
		return err
	}
	s.install(lvl, idx, path)
	s.logger.Info("loaded level",
		zap.String("path", path),
		zap.Int("targets", len(lvl.Targets)),
		zap.Int("nodes", len(lvl.FactNodes())),
		zap.Int("edges", s.resolver.EdgeCount()),
	)
	return nil
}

// SaveLevel 将关卡以缩进 JSON 原子写入文件（先写临时文件再重命名）
//
// 参数：
//   - lvl: 关卡
//   - edges: 派生子节点视图，用于输出 children 字段，可为 nil
//   - path: 目标文件
func SaveLevel(lvl *level.Level, edges level.ChildrenFunc, path string) error {
	data, err := level.SerializeLevel(lvl, edges)
	if err != nil {
		return fmt.Errorf("serialize level: %w", err)
	}
	return writeFileAtomic(path, data)
}

// DefaultFileName 返回关卡的默认文件名
//
// 依次使用第一个目标的名称、关卡名称，都为空时为 "level.json"。空格会被去掉。
func DefaultFileName(lvl *level.Level) string {
	if len(lvl.Targets) > 0 {
		return level.FileNameFor(lvl.Targets[0].Name)
	}
	return level.FileNameFor(lvl.Name)
}

// Save 保存当前关卡
//
// path 为空时保存到配置的目录下，文件名由 DefaultFileName 决定。
func (s *Session) Save(path string) error {
	if path == "" {
		path = filepath.Join(s.saveDir, DefaultFileName(s.level))
	}
	if err := SaveLevel(s.level, s.resolver.ChildNodes, path); err != nil {
		s.logger.Warn("save failed", zap.String("path", path), zap.Error(err))
		return err
	}
	s.path = path
	s.logger.Info("saved level", zap.String("path", path))
	return nil
}

// ExportTargets 为每个目标导出一个独立的 JSON 文件（<去空格名称>.json）
//
// 返回：
//   - []string: 写入的文件路径，顺序与目标顺序一致
//   - error: 两个目标导出为同一文件名，或 *IoError
func (s *Session) ExportTargets(dir string) ([]string, error) {
	seen := make(map[string]string, len(s.level.Targets))
	for _, t := range s.level.Targets {
		name := t.FileName()
		if other, ok := seen[name]; ok {
			return nil, fmt.Errorf("targets %q and %q both export to %s", other, t.Name, name)
		}
		seen[name] = t.Name
	}

	paths := make([]string, 0, len(s.level.Targets))
	for _, t := range s.level.Targets {
		data, err := level.SerializeTarget(t, s.resolver.ChildNodes)
		if err != nil {
			return paths, fmt.Errorf("serialize target %q: %w", t.Name, err)
		}
		path := filepath.Join(dir, t.FileName())
		if err := writeFileAtomic(path, data); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	s.logger.Info("exported targets", zap.String("dir", dir), zap.Int("files", len(paths)))
	return paths, nil
}

// writeFileAtomic 写入同目录下的临时文件后重命名，避免留下写了一半的文件
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &IoError{Op: "mkdir", Path: dir, Err: err}
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &IoError{Op: "create", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &IoError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &IoError{Op: "sync", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &IoError{Op: "close", Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return &IoError{Op: "chmod", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &IoError{Op: "rename", Path: path, Err: err}
	}
	return nil
}
