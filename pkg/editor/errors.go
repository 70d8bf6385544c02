package editor

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEntity 指定格子上没有实体（或找不到指定名称的目标）
	ErrNoEntity = errors.New("no entity at the given cell")
	// ErrNotFactNode 操作要求事实节点，但格子上是其他类型的实体
	ErrNotFactNode = errors.New("entity is not a fact node")
)

// IoError 文件读写失败
type IoError struct {
	Op   string // "read"、"write" 等
	Path string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IoError) Unwrap() error {
	return e.Err
}
