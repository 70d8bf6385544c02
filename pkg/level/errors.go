package level

import "fmt"

// SchemaError 数据结构错误
//
// 在加载 JSON 或编辑字段时，必填字段缺失或类型转换失败都会返回该错误。
// Path 是出错字段的 JSON 路径（如 "targets[0].factnodes[1].pos"），可能为空。
type SchemaError struct {
	Path   string
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return "schema error: " + e.Reason
	}
	return fmt.Sprintf("schema error at %s: %s", e.Path, e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

func schemaErrorf(path, format string, args ...any) *SchemaError {
	return &SchemaError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
