package level

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// CoerceInt 将表单或 JSON 中的文本转换为整数
//
// 接受 "12"、" 12 "、"12.0" 这类可无损转换的写法；"1.5"、"abc" 返回 SchemaError。
//
// 参数：
//   - field: 字段名，用于错误信息
//   - s: 原始文本
func CoerceInt(field, s string) (int, error) {
	n, ok := parseIntLoose(s)
	if !ok {
		return 0, schemaErrorf(field, "cannot coerce %q to integer", s)
	}
	return n, nil
}

// CoerceBool 将文本转换为布尔值
//
// 除 strconv.ParseBool 支持的写法外，还接受旧版表单使用的 "T"/"F"（大小写不敏感）。
func CoerceBool(field, s string) (bool, error) {
	b, ok := parseBoolLoose(s)
	if !ok {
		return false, schemaErrorf(field, "cannot coerce %q to boolean", s)
	}
	return b, nil
}

func parseIntLoose(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

func parseBoolLoose(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "t", "true", "1", "y", "yes":
		return true, true
	case "f", "false", "0", "n", "no":
		return false, true
	}
	return false, false
}

// flexInt 宽松整数：接受 JSON 数字或数字字符串
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	raw := string(b)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = s
	}
	n, ok := parseIntLoose(raw)
	if !ok {
		return &json.UnmarshalTypeError{Value: describeJSON(b), Type: reflect.TypeOf(0)}
	}
	*f = flexInt(n)
	return nil
}

// flexBool 宽松布尔：接受 JSON 布尔值、"T"/"F" 等字符串以及 0/1
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	raw := string(b)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = s
	}
	v, ok := parseBoolLoose(raw)
	if !ok {
		return &json.UnmarshalTypeError{Value: describeJSON(b), Type: reflect.TypeOf(false)}
	}
	*f = flexBool(v)
	return nil
}

func describeJSON(b []byte) string {
	const limit = 32
	s := string(b)
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return "value " + s
}
