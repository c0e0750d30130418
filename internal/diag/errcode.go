package diag

import (
	"context"
	"errors"
	"os"
	"time"

	"z64hdrgen/pkg/contract"
)

// Code 是最小错误分类代码。
// 仅用于日志/指标汇总，与退出码解耦。
type Code string

const (
	CodeUnknown         Code = "unknown"
	CodeConfig          Code = "config"
	CodeTargetMissing   Code = "target_missing"
	CodeScopeNotFound   Code = "scope_not_found"
	CodeIndexOutOfRange Code = "index_out_of_range"
	CodeMalformedSymbol Code = "malformed_symbol"
	CodeInvariant       Code = "invariant"
	CodeCancel          Code = "cancel"
	CodeIO              Code = "io"
)

// Classify 将错误归为最小分类。
// 说明：仅依赖哨兵错误与标准库错误类型，不做字符串匹配。
func Classify(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	// 取消/超时优先
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCancel
	}
	switch {
	case errors.Is(err, contract.ErrConfig):
		return CodeConfig
	case errors.Is(err, contract.ErrTargetMissing):
		return CodeTargetMissing
	case errors.Is(err, contract.ErrScopeNotFound):
		return CodeScopeNotFound
	case errors.Is(err, contract.ErrIndexOutOfRange):
		return CodeIndexOutOfRange
	case errors.Is(err, contract.ErrMalformedSymbolLine):
		return CodeMalformedSymbol
	case errors.Is(err, contract.ErrPathInvalid), errors.Is(err, contract.ErrUnknownRule):
		return CodeInvariant
	}
	// I/O
	var perr *os.PathError
	if errors.As(err, &perr) {
		return CodeIO
	}
	var lerr *os.LinkError
	if errors.As(err, &lerr) {
		return CodeIO
	}
	return CodeUnknown
}

// NowUTC 返回 RFC3339 UTC 时间字符串（用于结构化日志字段 ts）。
func NowUTC() string { return time.Now().UTC().Format(time.RFC3339) }
