package level

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// 新建 Target 的默认值
const (
	DefaultTargetName     = "John Doe"
	DefaultSuspicion      = 1
	DefaultMaxStress      = 100
	DefaultStartingStress = 0
)

// Combo 组合技记录
//
// Nodes 是不透明的引用数据，编辑器不解释其内容，只原样保存。
type Combo struct {
	Overwritten    bool
	Summary        string
	ModifiedDamage int
	Nodes          json.RawMessage
}

// Equal 判断两个组合技记录是否相同（Nodes 按规范化后的字节比较，nil 与 null 视为相同）
func (c Combo) Equal(o Combo) bool {
	return c.Overwritten == o.Overwritten &&
		c.Summary == o.Summary &&
		c.ModifiedDamage == o.ModifiedDamage &&
		bytes.Equal(normalizeNodes(c.Nodes), normalizeNodes(o.Nodes))
}

// normalizeNodes 返回 Nodes 的规范形式：空值写作 null，其余压缩空白
func normalizeNodes(raw json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage("null")
	}
	return compactRaw(raw)
}

// Target 目标人物
//
// 每个关卡至少包含一个 Target（后期版本支持多个），名称在关卡内唯一。
// StartingStress <= MaxStress 是预期约束，但编辑器不强制检查。
type Target struct {
	Name           string
	Pos            Position
	Suspicion      int
	MaxStress      int
	StartingStress int
	Neighbors      []string    // 相邻目标名称，排序去重，不包含自身
	Combos         []Combo     // 组合技，去重后保持原始顺序
	FactNodes      []*FactNode // 归属于该目标的事实节点
}

// NewTarget 创建一个带默认值的 Target，支持"先放置后编辑"的工作流程
func NewTarget(pos Position) *Target {
	return &Target{
		Name:           DefaultTargetName,
		Pos:            pos,
		Suspicion:      DefaultSuspicion,
		MaxStress:      DefaultMaxStress,
		StartingStress: DefaultStartingStress,
		Neighbors:      []string{},
		Combos:         []Combo{},
		FactNodes:      []*FactNode{},
	}
}

// Position 实现 Entity 接口
func (t *Target) Position() Position { return t.Pos }

// Kind 实现 Entity 接口
func (t *Target) Kind() Kind { return KindTarget }

// SetNeighbors 设置相邻目标列表
//
// 输入会被去空白、去重并排序；空字符串被忽略。
// 返回：
//   - bool: 如果列表中包含自身名称返回 false，此时不做任何修改
func (t *Target) SetNeighbors(names []string) bool {
	normalized := NormalizeNames(names)
	for _, n := range normalized {
		if n == t.Name {
			return false
		}
	}
	t.Neighbors = normalized
	return true
}

// AddCombo 添加组合技，已存在的相同记录不会重复添加
//
// Nodes 以规范形式保存，序列化再解析后与原记录逐字节一致。
func (t *Target) AddCombo(c Combo) bool {
	c.Nodes = normalizeNodes(c.Nodes)
	for _, existing := range t.Combos {
		if existing.Equal(c) {
			return false
		}
	}
	t.Combos = append(t.Combos, c)
	return true
}

// FileName 返回导出文件名：去掉空格的名称加 .json 后缀，如 "John Doe" -> "JohnDoe.json"
func (t *Target) FileName() string {
	return FileNameFor(t.Name)
}

// FileNameFor 将任意名称转换为导出文件名
func FileNameFor(name string) string {
	base := strings.Join(strings.Fields(name), "")
	if base == "" {
		base = "level"
	}
	if !strings.HasSuffix(base, ".json") {
		base += ".json"
	}
	return base
}

// NormalizeNames 去空白、去重并排序名称列表
func NormalizeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
