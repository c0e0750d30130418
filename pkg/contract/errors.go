package contract

import (
	"errors"
	"fmt"
)

// 补丁引擎与符号表解析的最小错误分类。
// 所有错误均不在本地恢复：向上包装（%w）直至调用方终止本次运行。
var (
	// ErrConfig: 规则集无法读取/解析，或单条规则缺少必需字段。
	ErrConfig = errors.New("config invalid")
	// ErrTargetMissing: 规则指向的文件在 include 根下不存在。
	ErrTargetMissing = errors.New("target file missing")
	// ErrScopeNotFound: TypedefInsert 找不到指定的 typedef struct 块。
	ErrScopeNotFound = errors.New("typedef scope not found")
	// ErrIndexOutOfRange: 行号对当前文本无效（负数或超出片段数）。
	ErrIndexOutOfRange = errors.New("line index out of range")
	// ErrMalformedSymbolLine: 符号行形如 name=addr 但地址不是合法十六进制。
	ErrMalformedSymbolLine = errors.New("malformed symbol line")
	// ErrPathInvalid: 文件标识映射为无效/越界路径（例如绝对路径或 '..' 逃逸）。
	ErrPathInvalid = errors.New("path invalid")
	// ErrUnknownRule: 规则类型不在封闭集合内。
	ErrUnknownRule = errors.New("unknown rule kind")
)

// RuleError 为单条规则失败的包装，携带序号/类型/目标文件，便于诊断输出。
type RuleError struct {
	Index int // 0 起的规则序号
	Kind  RuleKind
	File  FileID
	Err   error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule #%d (%s %s): %v", e.Index, e.Kind, e.File, e.Err)
}

func (e *RuleError) Unwrap() error { return e.Err }
