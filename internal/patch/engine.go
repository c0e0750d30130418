package patch

import (
	"context"
	"strconv"
	"strings"
	"time"

	"z64hdrgen/internal/diag"
	"z64hdrgen/pkg/contract"
)

// ApplyAll 按给定顺序逐条应用规则：读取目标 → Apply → 整体回写。
// 任一规则失败立即返回 *contract.RuleError；已写出的文件保持修改后状态（不回滚）。
// 后续规则总是看到前序规则写出的文本。
func ApplyAll(ctx context.Context, rules []contract.Rule, store contract.FileStore, logger *diag.Logger) error {
	term := diag.GetTerminal()
	term.StageStart("patch", len(rules))
	t0 := time.Now()
	ok := false
	defer func() {
		term.StageFinish(ok, time.Since(t0))
		diag.ObserveDuration("patch", "apply_all", time.Since(t0).Milliseconds())
	}()

	for i, r := range rules {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := applyOne(ctx, i, r, store, logger); err != nil {
			return err
		}
		term.Progress(i+1, string(r.Target()))
	}
	ok = true
	logger.InfoFinish("patch", "apply_all", t0, int64(len(rules)))
	return nil
}

func applyOne(ctx context.Context, idx int, r contract.Rule, store contract.FileStore, logger *diag.Logger) error {
	file := string(r.Target())
	ruleID := strconv.Itoa(idx)
	timer := logger.StartWithKV("patch", "apply", file, ruleID, map[string]string{"kind": r.Kind().String()})
	fail := func(msg string, err error) error {
		diag.Fail(logger, "patch", msg, err, timer, file, ruleID)
		return &contract.RuleError{Index: idx, Kind: r.Kind(), File: r.Target(), Err: err}
	}

	b, err := store.Read(ctx, r.Target())
	if err != nil {
		return fail("read failed", err)
	}
	out, err := Apply(r, string(b))
	if err != nil {
		return fail("apply failed", err)
	}
	if err := store.Write(ctx, r.Target(), strings.NewReader(out)); err != nil {
		return fail("write failed", err)
	}
	timer.Finish("apply", int64(len(out)))
	diag.IncOp("patch", "finish", "success")
	return nil
}
