package level

import (
	"fmt"
	"strings"
)

// FactNode 事实节点
//
// 父子关系不是存储字段：它们由连通性解析器根据 ConnectionToParent 和网格相邻关系推导。
type FactNode struct {
	Name               string
	Title              string
	Pos                Position
	ConnectionToParent CellSet // 从该节点画向父节点的路径格子
	PlayerStressDamage int
	StressDamage       int
	Summary            string
	Contents           string
	Locked             bool
}

// NewFactNode 创建一个带默认值的 FactNode（默认锁定）
func NewFactNode(pos Position) *FactNode {
	return &FactNode{
		Pos:                pos,
		ConnectionToParent: NewCellSet(),
		Locked:             true,
	}
}

// Position 实现 Entity 接口
func (n *FactNode) Position() Position { return n.Pos }

// Kind 实现 Entity 接口
func (n *FactNode) Kind() Kind { return KindFactNode }

// StressRating 预设压力等级
//
// 节点工具栏上的四个按钮，分别对应固定的伤害值。
type StressRating int

const (
	StressNone StressRating = iota
	StressLow
	StressMed
	StressHigh
)

// stressRatingNames 与 StressRating 顺序一致
var stressRatingNames = [...]string{"none", "low", "med", "high"}

// Damage 返回压力等级对应的伤害值
func (r StressRating) Damage() int {
	switch r {
	case StressLow:
		return 5
	case StressMed:
		return 10
	case StressHigh:
		return 20
	default:
		return 0
	}
}

// Next 返回下一个压力等级（High 之后回到 None）
func (r StressRating) Next() StressRating {
	return (r + 1) % StressRating(len(stressRatingNames))
}

func (r StressRating) String() string {
	if r < 0 || int(r) >= len(stressRatingNames) {
		return fmt.Sprintf("StressRating(%d)", int(r))
	}
	return stressRatingNames[r]
}

// ParseStressRating 解析压力等级名称（大小写不敏感，"medium" 等同 "med"）
func ParseStressRating(s string) (StressRating, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return StressNone, nil
	case "low":
		return StressLow, nil
	case "med", "medium":
		return StressMed, nil
	case "high":
		return StressHigh, nil
	}
	return StressNone, fmt.Errorf("unknown stress rating %q", s)
}

// RatingForDamage 返回与伤害值完全匹配的预设等级
func RatingForDamage(dmg int) (StressRating, bool) {
	for r := StressNone; r <= StressHigh; r++ {
		if r.Damage() == dmg {
			return r, true
		}
	}
	return StressNone, false
}

// ApplyStressRating 将预设等级同时应用到玩家伤害和目标伤害
func (n *FactNode) ApplyStressRating(r StressRating) {
	n.PlayerStressDamage = r.Damage()
	n.StressDamage = r.Damage()
}
