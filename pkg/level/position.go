package level

import (
	"fmt"
	"sort"
)

// 编辑器网格参数常量
// 所有版本的关卡都使用固定的 13x13 网格
const (
	GridColumns = 13 // 网格列数
	GridRows    = 13 // 网格行数
)

// Position 网格坐标
//
// 坐标是实体的实际主键：同一关卡中两个实体当且仅当位于同一格子时视为同一实体。
type Position struct {
	X int
	Y int
}

// Pos 构造一个网格坐标
func Pos(x, y int) Position {
	return Position{X: x, Y: y}
}

// InBounds 判断坐标是否位于 13x13 网格内
func (p Position) InBounds() bool {
	return p.X >= 0 && p.X < GridColumns && p.Y >= 0 && p.Y < GridRows
}

// Neighbors 返回四个正交相邻格子，顺序固定为 N, E, S, W
//
// 注意：返回值可能越界，调用方需自行使用 InBounds 过滤。
func (p Position) Neighbors() [4]Position {
	return [4]Position{
		{X: p.X, Y: p.Y - 1},
		{X: p.X + 1, Y: p.Y},
		{X: p.X, Y: p.Y + 1},
		{X: p.X - 1, Y: p.Y},
	}
}

// Adjacent 判断两个格子是否正交相邻
func (p Position) Adjacent(o Position) bool {
	dx, dy := p.X-o.X, p.Y-o.Y
	return dx*dx+dy*dy == 1
}

// Less 行优先排序（先比较 Y，再比较 X）
func (p Position) Less(o Position) bool {
	if p.Y != o.Y {
		return p.Y < o.Y
	}
	return p.X < o.X
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// SortPositions 对坐标切片进行原地行优先排序
func SortPositions(ps []Position) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].Less(ps[j]) })
}

// CellSet 格子集合
//
// 用于 FactNode 的 connection_to_parent 等"无序集合"语义的字段。
// 零值不可用，请使用 NewCellSet 创建。
type CellSet map[Position]struct{}

// NewCellSet 创建包含给定格子的集合
func NewCellSet(cells ...Position) CellSet {
	s := make(CellSet, len(cells))
	for _, c := range cells {
		s[c] = struct{}{}
	}
	return s
}

// Has 判断集合中是否包含格子
func (s CellSet) Has(p Position) bool {
	_, ok := s[p]
	return ok
}

// Add 添加格子，返回是否为新增
func (s CellSet) Add(p Position) bool {
	if s.Has(p) {
		return false
	}
	s[p] = struct{}{}
	return true
}

// Remove 删除格子，返回是否确实存在
func (s CellSet) Remove(p Position) bool {
	if !s.Has(p) {
		return false
	}
	delete(s, p)
	return true
}

// Sorted 返回按行优先排序的格子列表（用于稳定的序列化输出）
func (s CellSet) Sorted() []Position {
	out := make([]Position, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	SortPositions(out)
	return out
}

// Clone 返回集合的副本
func (s CellSet) Clone() CellSet {
	c := make(CellSet, len(s))
	for p := range s {
		c[p] = struct{}{}
	}
	return c
}
