// Package grid 提供编辑器网格的空间索引
//
// 空间索引回答"某个格子上是什么实体"，并保证每个格子最多只有一个实体。
package grid

import (
	"fmt"

	"github.com/decker502/freehim-editor/pkg/level"
)

// OccupiedCellError 放置冲突：目标格子已被占用
type OccupiedCellError struct {
	Pos      level.Position
	Occupant level.Entity
}

func (e *OccupiedCellError) Error() string {
	return fmt.Sprintf("cell %s is already occupied by a %s", e.Pos, e.Occupant.Kind())
}

// OutOfBoundsError 坐标超出网格范围
type OutOfBoundsError struct {
	Pos     level.Position
	Columns int
	Rows    int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("cell %s is outside the %dx%d grid", e.Pos, e.Columns, e.Rows)
}

// EmptyCellError 格子上没有实体
type EmptyCellError struct {
	Pos level.Position
}

func (e *EmptyCellError) Error() string {
	return fmt.Sprintf("no entity at %s", e.Pos)
}

// Index 空间索引：坐标 -> 实体
type Index struct {
	columns int
	rows    int
	cells   map[level.Position]level.Entity
}

// NewIndex 创建指定尺寸的空间索引
//
// 参数：
//   - columns, rows: 网格尺寸，编辑器目前固定为 13x13
func NewIndex(columns, rows int) *Index {
	return &Index{
		columns: columns,
		rows:    rows,
		cells:   make(map[level.Position]level.Entity),
	}
}

// Columns 返回网格列数
func (idx *Index) Columns() int { return idx.columns }

// Rows 返回网格行数
func (idx *Index) Rows() int { return idx.rows }

// InBounds 判断坐标是否在网格内
func (idx *Index) InBounds(p level.Position) bool {
	return p.X >= 0 && p.X < idx.columns && p.Y >= 0 && p.Y < idx.rows
}

// CheckBounds 坐标越界时返回 *OutOfBoundsError
func (idx *Index) CheckBounds(p level.Position) error {
	if !idx.InBounds(p) {
		return &OutOfBoundsError{Pos: p, Columns: idx.columns, Rows: idx.rows}
	}
	return nil
}

// Place 将实体放入其所在格子
//
// 坐标越界返回 *OutOfBoundsError，格子已被占用返回 *OccupiedCellError；失败时索引保持不变，不会静默覆盖。
func (idx *Index) Place(e level.Entity) error {
	p := e.Position()
	if err := idx.CheckBounds(p); err != nil {
		return err
	}
	if occupant, ok := idx.cells[p]; ok {
		return &OccupiedCellError{Pos: p, Occupant: occupant}
	}
	idx.cells[p] = e
	return nil
}

// Remove 移除格子上的实体，格子为空时什么也不做
//
// 返回：
//   - level.Entity: 被移除的实体
//   - bool: 格子上是否确实有实体
func (idx *Index) Remove(p level.Position) (level.Entity, bool) {
	e, ok := idx.cells[p]
	if ok {
		delete(idx.cells, p)
	}
	return e, ok
}

// Move 将 from 上的实体登记到 to
//
// 只修改索引，不修改实体本身的坐标字段；调用方在成功后自行更新实体坐标。
// from 为空返回 *EmptyCellError，to 越界或被占用返回对应错误，失败时索引不变。
// from == to 时直接成功。
func (idx *Index) Move(from, to level.Position) error {
	e, ok := idx.cells[from]
	if !ok {
		return &EmptyCellError{Pos: from}
	}
	if from == to {
		return nil
	}
	if err := idx.CheckBounds(to); err != nil {
		return err
	}
	if occupant, ok := idx.cells[to]; ok {
		return &OccupiedCellError{Pos: to, Occupant: occupant}
	}
	delete(idx.cells, from)
	idx.cells[to] = e
	return nil
}

// At 返回格子上的实体
func (idx *Index) At(p level.Position) (level.Entity, bool) {
	e, ok := idx.cells[p]
	return e, ok
}

// Occupied 判断格子是否被占用
func (idx *Index) Occupied(p level.Position) bool {
	_, ok := idx.cells[p]
	return ok
}

// Len 返回已占用格子数量
func (idx *Index) Len() int {
	return len(idx.cells)
}

// Positions 返回所有已占用格子（行优先排序）
func (idx *Index) Positions() []level.Position {
	out := make([]level.Position, 0, len(idx.cells))
	for p := range idx.cells {
		out = append(out, p)
	}
	level.SortPositions(out)
	return out
}

// Reset 清空索引
func (idx *Index) Reset() {
	idx.cells = make(map[level.Position]level.Entity)
}
