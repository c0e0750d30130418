package diag

// 最小指标接口（无导出实现，默认 no-op）。
// - op_total{comp,stage,result}
// - error_total{comp,code}
// - op_duration_ms{comp,stage}

// IncOp 累加操作计数（result=success|error）。
func IncOp(comp, stage, result string) {
	// 保持最小 no-op；适配层可通过替换实现导出。
}

// IncError 按分类累加错误计数。
func IncError(comp, code string) {
	// 保持最小 no-op；适配层可通过替换实现导出。
}

// ObserveDuration 记录阶段耗时（毫秒）。
func ObserveDuration(comp, stage string, durMS int64) {
	// 保持最小 no-op；适配层可通过替换实现导出。
}

// Fail 为组件失败的常用组合：记录 error 事件并累加计数。logger 可为 nil。
func Fail(logger *Logger, comp, msg string, err error, t *Timer, file, rule string) Code {
	code := Classify(err)
	if logger != nil {
		logger.ErrorWithKV(comp, string(code), msg, t.Since(), file, rule, map[string]string{"err": err.Error()})
	}
	IncOp(comp, "error", "error")
	if code != CodeUnknown {
		IncError(comp, string(code))
	}
	return code
}
