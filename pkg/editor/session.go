// Package editor 实现关卡编辑会话
//
// Session 显式持有关卡、空间索引、连通性解析器和编辑模式，
// 所有编辑操作都经过它完成，并在返回前同步更新派生的父子关系。
package editor

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/decker502/freehim-editor/pkg/connectivity"
	"github.com/decker502/freehim-editor/pkg/grid"
	"github.com/decker502/freehim-editor/pkg/level"
)

// Options 会话配置
type Options struct {
	SaveDir string      // Save 传入空路径时使用的目录
	Logger  *zap.Logger // 可为 nil
}

// Session 编辑会话
//
// 不是并发安全的：所有调用都应来自同一个 goroutine（UI 的 Update 循环）。
type Session struct {
	level    *level.Level
	index    *grid.Index
	resolver *connectivity.Resolver
	mode     Mode
	path     string
	saveDir  string
	logger   *zap.Logger
}

// NewSession 创建一个包含空关卡的会话
func NewSession(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		saveDir: opts.SaveDir,
		logger:  logger.With(zap.String("component", "editor")),
	}
	s.install(level.NewLevel(""), grid.NewIndex(level.GridColumns, level.GridRows), "")
	return s
}

// install 替换会话持有的关卡与索引，并重新解析全部父子关系
func (s *Session) install(lvl *level.Level, idx *grid.Index, path string) {
	s.level = lvl
	s.index = idx
	s.resolver = connectivity.NewResolver(idx, s.logger)
	s.resolver.ResolveAll()
	s.path = path
}

// Level 返回当前关卡
func (s *Session) Level() *level.Level { return s.level }

// Path 返回最近一次加载或保存的文件路径
func (s *Session) Path() string { return s.path }

// Edges 返回当前所有父子边
func (s *Session) Edges() []connectivity.Edge { return s.resolver.Edges() }

// Parents 返回实体的父实体坐标
func (s *Session) Parents(p level.Position) []level.Position { return s.resolver.Parents(p) }

// Children 返回实体的子节点
func (s *Session) Children(p level.Position) []*level.FactNode { return s.resolver.ChildNodes(p) }

// TreeOf 返回以目标为根的事实树
func (s *Session) TreeOf(root level.Position) []*level.FactNode { return s.resolver.TreeOf(root) }

// EntityAt 返回格子上的实体
func (s *Session) EntityAt(pos level.Position) (level.Entity, bool) {
	return s.index.At(pos)
}

// PlaceEntity 在空格子上放置一个带默认值的实体
//
// Target 获得唯一的默认名称（"John Doe"、"John Doe 2"……）；
// FactNode 归属于当前目标：选中实体所属的目标，否则第一个目标，没有目标时为游离节点。
//
// 返回：
//   - level.Position: 新实体的坐标
//   - error: *grid.OccupiedCellError 或 *grid.OutOfBoundsError，失败时关卡不变
func (s *Session) PlaceEntity(kind level.Kind, pos level.Position) (level.Position, error) {
	var e level.Entity
	switch kind {
	case level.KindTarget:
		t := level.NewTarget(pos)
		t.Name = s.level.UniqueTargetName(level.DefaultTargetName)
		e = t
	case level.KindFactNode:
		e = level.NewFactNode(pos)
	default:
		return pos, fmt.Errorf("cannot place entity of kind %s", kind)
	}

	if err := s.index.Place(e); err != nil {
		return pos, err
	}

	switch v := e.(type) {
	case *level.Target:
		s.level.Targets = append(s.level.Targets, v)
	case *level.FactNode:
		s.level.AddFactNode(s.currentTarget(), v)
	}
	s.resolver.ResolveAll()

	s.logger.Info("placed entity", zap.Stringer("kind", kind), zap.Stringer("pos", pos))
	return pos, nil
}

// currentTarget 新节点的默认归属目标
func (s *Session) currentTarget() *level.Target {
	if active, ok := s.Active(); ok {
		switch v := active.(type) {
		case *level.Target:
			return v
		case *level.FactNode:
			if owner, ok := s.level.OwnerOf(v); ok && owner != nil {
				return owner
			}
		}
	}
	if len(s.level.Targets) > 0 {
		return s.level.Targets[0]
	}
	return nil
}

// RemoveEntity 移除格子上的实体，空格子为无操作
//
// 移除 Target 时其名下节点转为游离节点；以该实体为端点的边被撤回。
func (s *Session) RemoveEntity(pos level.Position) error {
	e, ok := s.index.Remove(pos)
	if !ok {
		return nil
	}

	pruned := s.resolver.Prune(pos)
	switch v := e.(type) {
	case *level.Target:
		s.level.RemoveTarget(v)
	case *level.FactNode:
		s.level.RemoveFactNode(v)
	}
	if s.level.Active != nil && *s.level.Active == pos {
		s.clearActive()
	}
	s.resolver.ResolveAll()

	s.logger.Info("removed entity",
		zap.Stringer("kind", e.Kind()),
		zap.Stringer("pos", pos),
		zap.Int("pruned_edges", pruned),
	)
	return nil
}

// ToggleConnectionCell 在节点的连接格子集合中添加或移除 cell，并同步重新解析全部边
//
// 一个节点的路径变化可能改变其他节点的候选祖先，因此与其他修改一样整体重算，
// 边只取决于当前坐标和连接格子。
//
// 返回：
//   - error: ErrNoEntity、ErrNotFactNode、*grid.OutOfBoundsError，
//     或 *grid.OccupiedCellError（连接格子不能落在实体上）
func (s *Session) ToggleConnectionCell(nodeID, cell level.Position) error {
	node, err := s.factNodeAt(nodeID)
	if err != nil {
		return err
	}
	if err := s.index.CheckBounds(cell); err != nil {
		return err
	}

	added := false
	if !node.ConnectionToParent.Remove(cell) {
		if occupant, ok := s.index.At(cell); ok {
			return &grid.OccupiedCellError{Pos: cell, Occupant: occupant}
		}
		node.ConnectionToParent.Add(cell)
		added = true
	}

	s.resolver.ResolveAll()
	s.logger.Debug("toggled connection cell",
		zap.Stringer("node", nodeID),
		zap.Stringer("cell", cell),
		zap.Bool("added", added),
		zap.Int("parents", len(s.resolver.Parents(nodeID))),
	)
	return nil
}

// AssignNode 将节点的归属改为指定目标，空名称表示游离节点
func (s *Session) AssignNode(nodeID level.Position, targetName string) error {
	node, err := s.factNodeAt(nodeID)
	if err != nil {
		return err
	}
	var owner *level.Target
	if targetName != "" {
		if owner = s.level.Target(targetName); owner == nil {
			return fmt.Errorf("no target named %q: %w", targetName, ErrNoEntity)
		}
	}
	s.level.RemoveFactNode(node)
	s.level.AddFactNode(owner, node)
	s.logger.Info("assigned node", zap.Stringer("node", nodeID), zap.String("target", targetName))
	return nil
}

// Select 选中格子上的实体，空格子取消选中
func (s *Session) Select(pos level.Position) (level.Entity, bool) {
	e, ok := s.index.At(pos)
	if !ok {
		s.clearActive()
		return nil, false
	}
	p := pos
	s.level.Active = &p
	return e, true
}

// Active 返回当前选中的实体
func (s *Session) Active() (level.Entity, bool) {
	if s.level.Active == nil {
		return nil, false
	}
	return s.index.At(*s.level.Active)
}

func (s *Session) clearActive() {
	s.level.Active = nil
	s.level.Drawing = false
}

// BeginDrawing 开始为选中的节点绘制连接格子
func (s *Session) BeginDrawing() error {
	active, ok := s.Active()
	if !ok {
		return ErrNoEntity
	}
	if active.Kind() != level.KindFactNode {
		return ErrNotFactNode
	}
	s.level.Drawing = true
	return nil
}

// EndDrawing 结束绘制
func (s *Session) EndDrawing() {
	s.level.Drawing = false
}

func (s *Session) factNodeAt(pos level.Position) (*level.FactNode, error) {
	e, ok := s.index.At(pos)
	if !ok {
		return nil, fmt.Errorf("%s: %w", pos, ErrNoEntity)
	}
	node, ok := e.(*level.FactNode)
	if !ok {
		return nil, fmt.Errorf("%s holds a %s: %w", pos, e.Kind(), ErrNotFactNode)
	}
	return node, nil
}

// Check 校验会话内部的一致性
//
// 索引与关卡中的实体一一对应且坐标一致；每条边的两端都有实体，子端是 FactNode；
// 目标名称唯一；父子关系无环。测试和调试时使用。
func (s *Session) Check() error {
	entities := s.level.Entities()
	if len(entities) != s.index.Len() {
		return fmt.Errorf("level holds %d entities but index holds %d", len(entities), s.index.Len())
	}
	names := make(map[string]struct{}, len(s.level.Targets))
	for _, e := range entities {
		got, ok := s.index.At(e.Position())
		if !ok || got != e {
			return fmt.Errorf("%s at %s is not indexed", e.Kind(), e.Position())
		}
		if t, ok := e.(*level.Target); ok {
			if _, dup := names[t.Name]; dup {
				return fmt.Errorf("duplicate target name %q", t.Name)
			}
			names[t.Name] = struct{}{}
		}
	}
	for _, edge := range s.resolver.Edges() {
		if !s.index.Occupied(edge.Parent) {
			return fmt.Errorf("edge parent %s is empty", edge.Parent)
		}
		child, ok := s.index.At(edge.Child)
		if !ok || child.Kind() != level.KindFactNode {
			return fmt.Errorf("edge child %s is not a fact node", edge.Child)
		}
		for _, d := range s.resolver.Descendants(edge.Child) {
			if d == edge.Parent {
				return fmt.Errorf("cycle through %s and %s", edge.Parent, edge.Child)
			}
		}
	}
	return nil
}
