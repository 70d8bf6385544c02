package editor

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/decker502/freehim-editor/pkg/level"
)

// Fieldset 表单提交的字段：JSON 字段名 -> 原始文本
type Fieldset map[string]string

// 可编辑字段（JSON 字段名）
const (
	fieldName            = "name"
	fieldPos             = "pos"
	fieldSuspicion       = "suspicion"
	fieldMaxStress       = "max_stress"
	fieldStartingStress  = "starting_stress"
	fieldNeighbors       = "neighbors"
	fieldTitle           = "title"
	fieldPlayerStressDam = "player_stress_dam"
	fieldStressDam       = "stress_dam"
	fieldSummary         = "summary"
	fieldContents        = "contents"
	fieldLocked          = "locked"
	fieldStressRating    = "stress_rating"
)

// EditFields 修改实体字段
//
// 所有字段先在副本上转换和校验，全部成功后才写回，任何错误都不会留下部分修改。
// 修改 pos 会通过空间索引移动实体并重新解析父子关系。
//
// 参数：
//   - id: 实体坐标
//   - fields: 表单字段，键为 JSON 字段名
//
// 返回：
//   - error: ErrNoEntity；类型转换失败、未知字段、重名返回 *level.SchemaError；
//     移动到已占用格子返回 *grid.OccupiedCellError
func (s *Session) EditFields(id level.Position, fields Fieldset) error {
	e, ok := s.index.At(id)
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrNoEntity)
	}

	var err error
	switch v := e.(type) {
	case *level.Target:
		err = s.editTarget(v, fields)
	case *level.FactNode:
		err = s.editFactNode(v, fields)
	default:
		err = fmt.Errorf("cannot edit %s", e.Kind())
	}
	if err != nil {
		return err
	}
	s.logger.Info("edited entity", zap.Stringer("pos", id), zap.Strings("fields", sortedKeys(fields)))
	return nil
}

func (s *Session) editTarget(t *level.Target, fields Fieldset) error {
	staged := *t
	for _, key := range sortedKeys(fields) {
		raw := fields[key]
		var err error
		switch key {
		case fieldName:
			staged.Name = strings.TrimSpace(raw)
			if staged.Name == "" {
				err = &level.SchemaError{Path: key, Reason: "target name must not be empty"}
			}
		case fieldPos:
			staged.Pos, err = parsePosition(key, raw)
		case fieldSuspicion:
			staged.Suspicion, err = level.CoerceInt(key, raw)
		case fieldMaxStress:
			staged.MaxStress, err = level.CoerceInt(key, raw)
		case fieldStartingStress:
			staged.StartingStress, err = level.CoerceInt(key, raw)
		case fieldNeighbors:
			staged.Neighbors = level.NormalizeNames(strings.Split(raw, ","))
		default:
			err = unknownField(key, level.KindTarget)
		}
		if err != nil {
			return err
		}
	}

	if staged.Name != t.Name {
		if other := s.level.Target(staged.Name); other != nil {
			return &level.SchemaError{Path: fieldName, Reason: fmt.Sprintf("target name %q is already taken", staged.Name)}
		}
	}
	for _, n := range staged.Neighbors {
		if n == staged.Name {
			return &level.SchemaError{Path: fieldNeighbors, Reason: fmt.Sprintf("target %q lists itself as a neighbor", staged.Name)}
		}
	}
	if err := s.moveEntity(t.Pos, staged.Pos); err != nil {
		return err
	}

	oldName := t.Name
	moved := staged.Pos != t.Pos
	*t = staged
	if oldName != t.Name {
		s.renameNeighborReferences(oldName, t.Name)
	}
	if moved {
		s.afterMove(staged.Pos)
	}
	return nil
}

func (s *Session) editFactNode(n *level.FactNode, fields Fieldset) error {
	staged := *n

	// 预设等级先应用，显式给出的伤害值覆盖预设
	if raw, ok := fields[fieldStressRating]; ok {
		rating, err := level.ParseStressRating(raw)
		if err != nil {
			return &level.SchemaError{Path: fieldStressRating, Reason: err.Error(), Err: err}
		}
		staged.ApplyStressRating(rating)
	}

	for _, key := range sortedKeys(fields) {
		raw := fields[key]
		var err error
		switch key {
		case fieldStressRating:
		case fieldName:
			staged.Name = raw
		case fieldTitle:
			staged.Title = raw
		case fieldPos:
			staged.Pos, err = parsePosition(key, raw)
		case fieldPlayerStressDam:
			staged.PlayerStressDamage, err = level.CoerceInt(key, raw)
		case fieldStressDam:
			staged.StressDamage, err = level.CoerceInt(key, raw)
		case fieldSummary:
			staged.Summary = raw
		case fieldContents:
			staged.Contents = raw
		case fieldLocked:
			staged.Locked, err = level.CoerceBool(key, raw)
		default:
			err = unknownField(key, level.KindFactNode)
		}
		if err != nil {
			return err
		}
	}

	if staged.Pos != n.Pos && staged.ConnectionToParent.Has(staged.Pos) {
		return &level.SchemaError{Path: fieldPos, Reason: fmt.Sprintf("%s is one of the node's own connection cells", staged.Pos)}
	}
	if err := s.moveEntity(n.Pos, staged.Pos); err != nil {
		return err
	}

	moved := staged.Pos != n.Pos
	*n = staged
	if moved {
		s.afterMove(staged.Pos)
	}
	return nil
}

// moveEntity 在索引中移动实体，from == to 时什么也不做
func (s *Session) moveEntity(from, to level.Position) error {
	if from == to {
		return nil
	}
	if err := s.index.Move(from, to); err != nil {
		return err
	}
	if s.level.Active != nil && *s.level.Active == from {
		p := to
		s.level.Active = &p
	}
	return nil
}

// afterMove 实体坐标变化后，以坐标为键的边全部失效，需要整体重新解析
func (s *Session) afterMove(to level.Position) {
	s.resolver.ResolveAll()
	s.logger.Debug("entity moved", zap.Stringer("to", to), zap.Int("edges", s.resolver.EdgeCount()))
}

// renameNeighborReferences 目标改名后同步其他目标的相邻列表
func (s *Session) renameNeighborReferences(oldName, newName string) {
	for _, t := range s.level.Targets {
		changed := false
		names := make([]string, len(t.Neighbors))
		for i, n := range t.Neighbors {
			if n == oldName {
				n = newName
				changed = true
			}
			names[i] = n
		}
		if changed {
			t.Neighbors = level.NormalizeNames(names)
		}
	}
}

// parsePosition 解析表单中的坐标，接受 "3,4"、"3 4"、"[3, 4]" 等写法
func parsePosition(field, raw string) (level.Position, error) {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case ',', ' ', '\t', '[', ']', '(', ')':
			return true
		}
		return false
	})
	if len(parts) != 2 {
		return level.Position{}, &level.SchemaError{Path: field, Reason: fmt.Sprintf("expected two coordinates, got %q", raw)}
	}
	x, err := level.CoerceInt(field, parts[0])
	if err != nil {
		return level.Position{}, err
	}
	y, err := level.CoerceInt(field, parts[1])
	if err != nil {
		return level.Position{}, err
	}
	return level.Pos(x, y), nil
}

func unknownField(key string, kind level.Kind) error {
	return &level.SchemaError{Path: key, Reason: fmt.Sprintf("unknown %s field", kind)}
}

func sortedKeys(fields Fieldset) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
