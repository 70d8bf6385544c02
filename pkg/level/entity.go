package level

// Kind 实体类型
type Kind int

const (
	KindTarget   Kind = iota + 1 // 目标人物（事实树的根）
	KindFactNode                 // 事实节点
)

// String 返回实体类型的可读名称
func (k Kind) String() string {
	switch k {
	case KindTarget:
		return "target"
	case KindFactNode:
		return "factnode"
	default:
		return "unknown"
	}
}

// Entity 网格上可放置的实体
//
// Target 与 FactNode 都实现该接口，空间索引只通过它访问实体。
type Entity interface {
	Position() Position
	Kind() Kind
}

var (
	_ Entity = (*Target)(nil)
	_ Entity = (*FactNode)(nil)
)
