package level

import "strconv"

// Level 关卡聚合根
//
// Active 与 Drawing 属于编辑会话状态，不参与序列化。
// Active 是弱引用：只记录正在编辑的实体坐标，不持有实体本身。
type Level struct {
	Name    string
	Targets []*Target
	Loose   []*FactNode // 未归属任何 Target 的节点
	Active  *Position
	Drawing bool
}

// NewLevel 创建一个空关卡
func NewLevel(name string) *Level {
	return &Level{
		Name:    name,
		Targets: []*Target{},
		Loose:   []*FactNode{},
	}
}

// Target 按名称查找目标
func (l *Level) Target(name string) *Target {
	for _, t := range l.Targets {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// FactNodes 返回关卡中所有节点（按目标顺序，游离节点在最后）
func (l *Level) FactNodes() []*FactNode {
	var out []*FactNode
	for _, t := range l.Targets {
		out = append(out, t.FactNodes...)
	}
	return append(out, l.Loose...)
}

// Entities 返回关卡中所有实体
func (l *Level) Entities() []Entity {
	out := make([]Entity, 0, len(l.Targets))
	for _, t := range l.Targets {
		out = append(out, t)
	}
	for _, n := range l.FactNodes() {
		out = append(out, n)
	}
	return out
}

// OwnerOf 返回节点的所属目标
//
// 返回：
//   - *Target: 所属目标，游离节点返回 nil
//   - bool: 节点是否属于该关卡
func (l *Level) OwnerOf(n *FactNode) (*Target, bool) {
	for _, t := range l.Targets {
		if indexOfNode(t.FactNodes, n) >= 0 {
			return t, true
		}
	}
	if indexOfNode(l.Loose, n) >= 0 {
		return nil, true
	}
	return nil, false
}

// AddFactNode 将节点加入指定目标，owner 为 nil 时加入游离节点列表
func (l *Level) AddFactNode(owner *Target, n *FactNode) {
	if owner == nil {
		l.Loose = append(l.Loose, n)
		return
	}
	owner.FactNodes = append(owner.FactNodes, n)
}

// RemoveFactNode 从所属集合中移除节点
func (l *Level) RemoveFactNode(n *FactNode) bool {
	for _, t := range l.Targets {
		if i := indexOfNode(t.FactNodes, n); i >= 0 {
			t.FactNodes = append(t.FactNodes[:i], t.FactNodes[i+1:]...)
			return true
		}
	}
	if i := indexOfNode(l.Loose, n); i >= 0 {
		l.Loose = append(l.Loose[:i], l.Loose[i+1:]...)
		return true
	}
	return false
}

// RemoveTarget 移除目标，其名下节点转为游离节点
func (l *Level) RemoveTarget(t *Target) bool {
	for i, existing := range l.Targets {
		if existing != t {
			continue
		}
		l.Targets = append(l.Targets[:i], l.Targets[i+1:]...)
		l.Loose = append(l.Loose, t.FactNodes...)
		t.FactNodes = []*FactNode{}
		return true
	}
	return false
}

// UniqueTargetName 返回一个未被占用的目标名称
//
// base 未被占用时原样返回，否则依次尝试 "base 2"、"base 3"……
func (l *Level) UniqueTargetName(base string) string {
	if l.Target(base) == nil {
		return base
	}
	for i := 2; ; i++ {
		name := base + " " + strconv.Itoa(i)
		if l.Target(name) == nil {
			return name
		}
	}
}

func indexOfNode(nodes []*FactNode, n *FactNode) int {
	for i, candidate := range nodes {
		if candidate == n {
			return i
		}
	}
	return -1
}
