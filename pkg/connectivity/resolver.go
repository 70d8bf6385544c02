// Package connectivity 根据连接格子和网格相邻关系推导事实树的父子关系
//
// 父子边是派生数据：每次连接格子变化时重新计算，从不持久化为可独立编辑的副本。
package connectivity

import (
	"sort"

	"go.uber.org/zap"

	"github.com/decker502/freehim-editor/pkg/level"
)

// Occupancy 空间索引的只读视图（grid.Index 实现了该接口）
type Occupancy interface {
	At(p level.Position) (level.Entity, bool)
	InBounds(p level.Position) bool
	Positions() []level.Position
}

// Edge 一条父子边
type Edge struct {
	Parent level.Position
	Child  level.Position
}

// Result 单个节点的解析结果
type Result struct {
	Visited int              // 泛洪过程中访问的格子数（每个格子最多一次）
	Parents []level.Position // 解析后该节点的全部父实体
	Added   int              // 新增的边数
	Removed int              // 撤回的过期边数
}

// Resolver 连通性解析器
//
// 采用"变化时重算"策略：调用方在连接格子或实体发生变化后同步调用 Resolve/ResolveAll，
// 不存在延迟计算。解析过程假设期间没有并发修改。
type Resolver struct {
	grid     Occupancy
	parents  map[level.Position]level.CellSet // child -> parents
	children map[level.Position]level.CellSet // parent -> children
	logger   *zap.Logger
}

// NewResolver 创建解析器
//
// 参数：
//   - grid: 空间索引
//   - logger: 日志记录器，可为 nil
func NewResolver(grid Occupancy, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		grid:     grid,
		parents:  make(map[level.Position]level.CellSet),
		children: make(map[level.Position]level.CellSet),
		logger:   logger.With(zap.String("component", "resolver")),
	}
}

// Resolve 重新计算单个节点的父边
//
// 算法：
//  1. 以节点四个相邻格子作为初始边界
//  2. 依次弹出格子：连接格子继续向四周扩展；非连接格子若被候选祖先占据则记录一条边，
//     路径在第一个被占据的非连接格子处终止
//  3. 撤回本次未到达的、先前记录的指向该节点的边
//
// 候选祖先：任意 Target，或除自身及自身后代之外的 FactNode（保证不成环）。
// 边界是集合，每个格子最多访问一次，网格有限，因此必然终止。
func (r *Resolver) Resolve(node *level.FactNode) Result {
	descendants := r.descendantSet(node.Pos)
	reached, visited := r.flood(node, descendants)

	var res Result
	res.Visited = visited

	for parent := range r.parents[node.Pos] {
		if !reached.Has(parent) {
			r.removeEdge(parent, node.Pos)
			res.Removed++
		}
	}
	for _, parent := range reached.Sorted() {
		if r.addEdge(parent, node.Pos) {
			res.Added++
		}
	}
	res.Parents = r.Parents(node.Pos)

	if res.Added > 0 || res.Removed > 0 {
		r.logger.Debug("resolved node",
			zap.Stringer("pos", node.Pos),
			zap.Int("visited", res.Visited),
			zap.Int("added", res.Added),
			zap.Int("removed", res.Removed),
		)
	}
	return res
}

// ResolveAll 清空所有边，按行优先顺序重新解析每个节点
//
// 结果只取决于当前网格与连接格子，与历史操作无关。
func (r *Resolver) ResolveAll() {
	r.Reset()
	nodes := 0
	for _, p := range r.grid.Positions() {
		e, ok := r.grid.At(p)
		if !ok {
			continue
		}
		if node, ok := e.(*level.FactNode); ok {
			r.Resolve(node)
			nodes++
		}
	}
	r.logger.Debug("resolved all nodes", zap.Int("nodes", nodes), zap.Int("edges", r.EdgeCount()))
}

// Prune 删除以 p 为端点的所有边（实体被移除时调用）
func (r *Resolver) Prune(p level.Position) int {
	removed := 0
	for parent := range r.parents[p] {
		r.removeEdge(parent, p)
		removed++
	}
	for child := range r.children[p] {
		r.removeEdge(p, child)
		removed++
	}
	return removed
}

// Reset 清空所有边
func (r *Resolver) Reset() {
	r.parents = make(map[level.Position]level.CellSet)
	r.children = make(map[level.Position]level.CellSet)
}

// flood 从节点出发沿连接格子泛洪，返回到达的候选祖先坐标和访问的格子数
func (r *Resolver) flood(node *level.FactNode, descendants level.CellSet) (level.CellSet, int) {
	reached := level.NewCellSet()
	queued := level.NewCellSet(node.Pos)
	frontier := make([]level.Position, 0, 8)

	push := func(p level.Position) {
		if !r.grid.InBounds(p) || !queued.Add(p) {
			return
		}
		frontier = append(frontier, p)
	}
	for _, nb := range node.Pos.Neighbors() {
		push(nb)
	}

	visited := 0
	for len(frontier) > 0 {
		cell := frontier[0]
		frontier = frontier[1:]
		visited++

		if node.ConnectionToParent.Has(cell) {
			for _, nb := range cell.Neighbors() {
				push(nb)
			}
			continue
		}

		occupant, ok := r.grid.At(cell)
		if !ok {
			continue
		}
		if isCandidateAncestor(occupant, node, descendants) {
			reached.Add(cell)
		}
	}
	return reached, visited
}

func isCandidateAncestor(e level.Entity, node *level.FactNode, descendants level.CellSet) bool {
	switch e.Kind() {
	case level.KindTarget:
		return true
	case level.KindFactNode:
		p := e.Position()
		return p != node.Pos && !descendants.Has(p)
	default:
		return false
	}
}

func (r *Resolver) addEdge(parent, child level.Position) bool {
	ps, ok := r.parents[child]
	if !ok {
		ps = level.NewCellSet()
		r.parents[child] = ps
	}
	if !ps.Add(parent) {
		return false
	}
	cs, ok := r.children[parent]
	if !ok {
		cs = level.NewCellSet()
		r.children[parent] = cs
	}
	cs.Add(child)
	return true
}

func (r *Resolver) removeEdge(parent, child level.Position) {
	if ps, ok := r.parents[child]; ok {
		ps.Remove(parent)
		if len(ps) == 0 {
			delete(r.parents, child)
		}
	}
	if cs, ok := r.children[parent]; ok {
		cs.Remove(child)
		if len(cs) == 0 {
			delete(r.children, parent)
		}
	}
}

// Parents 返回实体的所有父实体坐标（行优先排序）
func (r *Resolver) Parents(p level.Position) []level.Position {
	return r.parents[p].Sorted()
}

// Children 返回实体的所有子节点坐标（行优先排序）
func (r *Resolver) Children(p level.Position) []level.Position {
	return r.children[p].Sorted()
}

// ChildNodes 返回实体的子节点（用作序列化时的派生 children 视图）
func (r *Resolver) ChildNodes(p level.Position) []*level.FactNode {
	var out []*level.FactNode
	for _, c := range r.Children(p) {
		if e, ok := r.grid.At(c); ok {
			if node, ok := e.(*level.FactNode); ok {
				out = append(out, node)
			}
		}
	}
	return out
}

// HasEdge 判断是否存在 parent -> child 的边
func (r *Resolver) HasEdge(parent, child level.Position) bool {
	return r.parents[child].Has(parent)
}

// EdgeCount 返回边的总数
func (r *Resolver) EdgeCount() int {
	n := 0
	for _, ps := range r.parents {
		n += len(ps)
	}
	return n
}

// Edges 返回所有边（按父坐标、子坐标排序）
func (r *Resolver) Edges() []Edge {
	out := make([]Edge, 0, r.EdgeCount())
	for child, ps := range r.parents {
		for parent := range ps {
			out = append(out, Edge{Parent: parent, Child: child})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Parent != out[j].Parent {
			return out[i].Parent.Less(out[j].Parent)
		}
		return out[i].Child.Less(out[j].Child)
	})
	return out
}

// Descendants 返回实体的所有后代坐标（行优先排序）
func (r *Resolver) Descendants(p level.Position) []level.Position {
	return r.descendantSet(p).Sorted()
}

// TreeOf 返回以某个 Target 为根的事实树中的所有节点
func (r *Resolver) TreeOf(root level.Position) []*level.FactNode {
	var out []*level.FactNode
	for _, p := range r.Descendants(root) {
		if e, ok := r.grid.At(p); ok {
			if node, ok := e.(*level.FactNode); ok {
				out = append(out, node)
			}
		}
	}
	return out
}

func (r *Resolver) descendantSet(p level.Position) level.CellSet {
	seen := level.NewCellSet()
	stack := []level.Position{p}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for child := range r.children[cur] {
			if child == p || !seen.Add(child) {
				continue
			}
			stack = append(stack, child)
		}
	}
	return seen
}
