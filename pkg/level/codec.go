package level

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"
)

// 文档结构：JSON 的类型化映射
//
// 必填字段使用指针 + validate:"required"，在构建领域对象之前一次性校验完整结构，
// 避免在字段访问深处才失败。
type (
	levelDoc struct {
		Name      string        `json:"name"`
		Targets   []targetDoc   `json:"targets" validate:"required,dive"`
		FactNodes []factNodeDoc `json:"factnodes" validate:"omitempty,dive"`
	}

	targetDoc struct {
		Name           *string       `json:"name" validate:"required"`
		Pos            []flexInt     `json:"pos" validate:"required,len=2"`
		Suspicion      *flexInt      `json:"suspicion" validate:"required"`
		MaxStress      *flexInt      `json:"max_stress" validate:"required"`
		StartingStress *flexInt      `json:"starting_stress" validate:"required"`
		Neighbors      []string      `json:"neighbors" validate:"required"`
		Combos         []comboDoc    `json:"combos" validate:"required,dive"`
		FactNodes      []factNodeDoc `json:"factnodes" validate:"required,dive"`
	}

	comboDoc struct {
		Overwritten *flexBool       `json:"overwritten" validate:"required"`
		Summary     *string         `json:"summary" validate:"required"`
		ModifiedDam *flexInt        `json:"modified_dam" validate:"required"`
		Nodes       json.RawMessage `json:"nodes" validate:"required"`
	}

	factNodeDoc struct {
		Name               *string       `json:"name" validate:"required"`
		Title              *string       `json:"title" validate:"required"`
		Pos                []flexInt     `json:"pos" validate:"required,len=2"`
		Children           []factNodeDoc `json:"children" validate:"omitempty,dive"`
		ConnectionToParent [][]flexInt   `json:"connection_to_parent" validate:"required,dive,len=2"`
		PlayerStressDam    *flexInt      `json:"player_stress_dam" validate:"required"`
		StressDam          *flexInt      `json:"stress_dam" validate:"required"`
		Summary            *string       `json:"summary" validate:"required"`
		Contents           *string       `json:"contents" validate:"required"`
		Locked             *flexBool     `json:"locked" validate:"required"`
	}
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 错误路径使用 JSON 字段名而不是 Go 字段名
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ChildrenFunc 返回某个格子上实体的派生子节点
//
// 序列化时用于输出 children 字段；传 nil 表示不输出任何子节点。
type ChildrenFunc func(parent Position) []*FactNode

// ParseFactNode 解析单个 FactNode 文档
//
// children 字段只做结构校验后丢弃：父子关系由连通性解析器推导，不从文件读取。
func ParseFactNode(raw []byte) (*FactNode, error) {
	var doc factNodeDoc
	if err := decodeDoc(raw, &doc); err != nil {
		return nil, err
	}
	return doc.toFactNode(), nil
}

// ParseTarget 解析单个 Target 文档（包含其名下的 FactNode）
func ParseTarget(raw []byte) (*Target, error) {
	var doc targetDoc
	if err := decodeDoc(raw, &doc); err != nil {
		return nil, err
	}
	return doc.toTarget("")
}

// ParseLevel 解析关卡文档
//
// 兼容旧版单目标格式：顶层即为 Target 对象（没有 targets 字段）。
//
// 返回：
//   - *Level: 解析后的关卡，Active/Drawing 为零值
//   - error: 结构错误返回 *SchemaError
func ParseLevel(raw []byte) (*Level, error) {
	if !gjson.ValidBytes(raw) {
		return nil, &SchemaError{Reason: "malformed JSON"}
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, &SchemaError{Reason: "level document must be a JSON object"}
	}

	if isLegacyTarget(root) {
		t, err := ParseTarget(raw)
		if err != nil {
			return nil, err
		}
		lvl := NewLevel(t.Name)
		lvl.Targets = append(lvl.Targets, t)
		return lvl, nil
	}

	var doc levelDoc
	if err := decodeDoc(raw, &doc); err != nil {
		return nil, err
	}
	return doc.toLevel()
}

// isLegacyTarget 判断文档是否为旧版单目标格式
func isLegacyTarget(root gjson.Result) bool {
	return !root.Get("targets").Exists() && root.Get("pos").Exists() && root.Get("name").Exists()
}

// SerializeFactNode 序列化单个 FactNode
func SerializeFactNode(n *FactNode, children ChildrenFunc) ([]byte, error) {
	return marshalDoc(factNodeToDoc(n, children, map[Position]bool{}))
}

// SerializeTarget 序列化单个 Target（包含其名下的 FactNode）
func SerializeTarget(t *Target, children ChildrenFunc) ([]byte, error) {
	return marshalDoc(targetToDoc(t, children))
}

// SerializeLevel 序列化关卡，空集合输出为 [] 而不是 null
func SerializeLevel(l *Level, children ChildrenFunc) ([]byte, error) {
	doc := levelDoc{
		Name:      l.Name,
		Targets:   make([]targetDoc, 0, len(l.Targets)),
		FactNodes: make([]factNodeDoc, 0, len(l.Loose)),
	}
	for _, t := range l.Targets {
		doc.Targets = append(doc.Targets, targetToDoc(t, children))
	}
	for _, n := range l.Loose {
		doc.FactNodes = append(doc.FactNodes, factNodeToDoc(n, children, map[Position]bool{}))
	}
	return marshalDoc(doc)
}

func marshalDoc(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "\t")
}

// decodeDoc 解码并校验文档，所有失败都转换为 *SchemaError
func decodeDoc(raw []byte, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return toSchemaError(err)
	}
	if err := validate.Struct(dst); err != nil {
		return toSchemaError(err)
	}
	return nil
}

func toSchemaError(err error) error {
	var (
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
		fieldErrs validator.ValidationErrors
	)
	switch {
	case errors.As(err, &typeErr):
		return &SchemaError{
			Path:   typeErr.Field,
			Reason: "cannot coerce " + typeErr.Value + " to " + typeErr.Type.String(),
			Err:    err,
		}
	case errors.As(err, &syntaxErr):
		return &SchemaError{Reason: "malformed JSON", Err: err}
	case errors.As(err, &fieldErrs) && len(fieldErrs) > 0:
		fe := fieldErrs[0]
		return &SchemaError{Path: trimNamespace(fe.Namespace()), Reason: describeFieldError(fe), Err: err}
	default:
		return &SchemaError{Reason: err.Error(), Err: err}
	}
}

// trimNamespace 去掉校验器命名空间中的根类型名，如 "levelDoc.targets[0].pos" -> "targets[0].pos"
func trimNamespace(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required field is missing"
	case "len":
		return "must have exactly " + fe.Param() + " elements"
	default:
		return "failed " + fe.Tag() + " check"
	}
}

func (d levelDoc) toLevel() (*Level, error) {
	lvl := NewLevel(d.Name)
	for i, td := range d.Targets {
		t, err := td.toTarget("targets[" + strconv.Itoa(i) + "]")
		if err != nil {
			return nil, err
		}
		if lvl.Target(t.Name) != nil {
			return nil, schemaErrorf("targets["+strconv.Itoa(i)+"].name", "duplicate target name %q", t.Name)
		}
		lvl.Targets = append(lvl.Targets, t)
	}
	for _, nd := range d.FactNodes {
		lvl.Loose = append(lvl.Loose, nd.toFactNode())
	}
	return lvl, nil
}

func (d targetDoc) toTarget(path string) (*Target, error) {
	t := NewTarget(docPosition(d.Pos))
	t.Name = *d.Name
	t.Suspicion = int(*d.Suspicion)
	t.MaxStress = int(*d.MaxStress)
	t.StartingStress = int(*d.StartingStress)
	if !t.SetNeighbors(d.Neighbors) {
		return nil, schemaErrorf(joinPath(path, "neighbors"), "target %q lists itself as a neighbor", t.Name)
	}
	for _, cd := range d.Combos {
		t.AddCombo(Combo{
			Overwritten:    bool(*cd.Overwritten),
			Summary:        *cd.Summary,
			ModifiedDamage: int(*cd.ModifiedDam),
			Nodes:          cd.Nodes,
		})
	}
	for _, nd := range d.FactNodes {
		t.FactNodes = append(t.FactNodes, nd.toFactNode())
	}
	return t, nil
}

func (d factNodeDoc) toFactNode() *FactNode {
	n := NewFactNode(docPosition(d.Pos))
	n.Name = *d.Name
	n.Title = *d.Title
	for _, c := range d.ConnectionToParent {
		n.ConnectionToParent.Add(docPosition(c))
	}
	n.PlayerStressDamage = int(*d.PlayerStressDam)
	n.StressDamage = int(*d.StressDam)
	n.Summary = *d.Summary
	n.Contents = *d.Contents
	n.Locked = bool(*d.Locked)
	return n
}

func targetToDoc(t *Target, children ChildrenFunc) targetDoc {
	doc := targetDoc{
		Name:           ptr(t.Name),
		Pos:            positionDoc(t.Pos),
		Suspicion:      ptr(flexInt(t.Suspicion)),
		MaxStress:      ptr(flexInt(t.MaxStress)),
		StartingStress: ptr(flexInt(t.StartingStress)),
		Neighbors:      append([]string{}, t.Neighbors...),
		Combos:         make([]comboDoc, 0, len(t.Combos)),
		FactNodes:      make([]factNodeDoc, 0, len(t.FactNodes)),
	}
	for _, c := range t.Combos {
		nodes := c.Nodes
		if len(nodes) == 0 {
			nodes = json.RawMessage("null")
		}
		doc.Combos = append(doc.Combos, comboDoc{
			Overwritten: ptr(flexBool(c.Overwritten)),
			Summary:     ptr(c.Summary),
			ModifiedDam: ptr(flexInt(c.ModifiedDamage)),
			Nodes:       nodes,
		})
	}
	for _, n := range t.FactNodes {
		doc.FactNodes = append(doc.FactNodes, factNodeToDoc(n, children, map[Position]bool{}))
	}
	return doc
}

// factNodeToDoc 构建节点文档，children 为派生视图
//
// onPath 记录当前递归路径上的节点，防止异常数据导致无限递归。
func factNodeToDoc(n *FactNode, children ChildrenFunc, onPath map[Position]bool) factNodeDoc {
	conns := make([][]flexInt, 0, len(n.ConnectionToParent))
	for _, c := range n.ConnectionToParent.Sorted() {
		conns = append(conns, positionDoc(c))
	}
	doc := factNodeDoc{
		Name:               ptr(n.Name),
		Title:              ptr(n.Title),
		Pos:                positionDoc(n.Pos),
		Children:           []factNodeDoc{},
		ConnectionToParent: conns,
		PlayerStressDam:    ptr(flexInt(n.PlayerStressDamage)),
		StressDam:          ptr(flexInt(n.StressDamage)),
		Summary:            ptr(n.Summary),
		Contents:           ptr(n.Contents),
		Locked:             ptr(flexBool(n.Locked)),
	}
	if children == nil || onPath[n.Pos] {
		return doc
	}
	onPath[n.Pos] = true
	for _, child := range children(n.Pos) {
		if onPath[child.Pos] {
			continue
		}
		doc.Children = append(doc.Children, factNodeToDoc(child, children, onPath))
	}
	delete(onPath, n.Pos)
	return doc
}

func positionDoc(p Position) []flexInt {
	return []flexInt{flexInt(p.X), flexInt(p.Y)}
}

func docPosition(v []flexInt) Position {
	return Position{X: int(v[0]), Y: int(v[1])}
}

// compactRaw 压缩不透明 JSON，保证多次往返后字节一致
func compactRaw(raw json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return append(json.RawMessage(nil), raw...)
	}
	return json.RawMessage(buf.Bytes())
}

func ptr[T any](v T) *T {
	return &v
}

func joinPath(base, field string) string {
	if base == "" {
		return field
	}
	return base + "." + field
}
