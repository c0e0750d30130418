package patch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"z64hdrgen/internal/diag"
	"z64hdrgen/internal/fstree"
	"z64hdrgen/pkg/contract"
)

// Components 聚合运行所需的组件。
type Components struct {
	Rules contract.RuleSource
	// NewStore 以给定根目录构造 FileStore（暂存模式下根目录为暂存副本）。
	NewStore func(root string) (contract.FileStore, error)
}

// Settings 运行期配置。
type Settings struct {
	// IncludeRoot: 被修补的 include 根目录。
	IncludeRoot string
	// SourceInclude: 非空时先以该目录的完整副本替换 IncludeRoot。
	SourceInclude string
	// Staging: 在同级暂存副本上修补，全部成功后再换入。
	Staging bool
}

// Run 执行：加载规则 →（可选）同步 include →（可选暂存）逐条修补 →（暂存时）换入。
// 约束：
// - 规则加载失败返回 ErrConfig，且不触碰任何文件；
// - 非暂存模式下失败时，已写出的文件保持修改后状态；
// - 暂存模式下失败时，IncludeRoot 保持运行前原样，暂存副本被删除。
func Run(ctx context.Context, comp Components, set Settings, logger *diag.Logger) error {
	if err := sanity(comp, set); err != nil {
		return fmt.Errorf("sanity: %w", err)
	}
	term := diag.GetTerminal()
	runStart := time.Now()
	ok := false
	defer func() { term.RunFinish(ok, time.Since(runStart)) }()

	timer := logger.Start("rules", "load")
	rules, err := comp.Rules.Load(ctx)
	if err != nil {
		if !errors.Is(err, contract.ErrConfig) {
			err = fmt.Errorf("%w: %w", contract.ErrConfig, err)
		}
		diag.Fail(logger, "rules", "load failed", err, timer, "", "")
		return fmt.Errorf("load rules: %w", err)
	}
	timer.Finish("load", int64(len(rules)))
	diag.IncOp("rules", "finish", "success")
	term.RunStart(len(rules), set.IncludeRoot)

	if set.Staging {
		err = runStaged(ctx, comp, set, rules, logger)
	} else {
		err = runInPlace(ctx, comp, set, rules, logger)
	}
	if err != nil {
		return err
	}
	ok = true
	return nil
}

func runInPlace(ctx context.Context, comp Components, set Settings, rules []contract.Rule, logger *diag.Logger) error {
	if set.SourceInclude != "" {
		if err := syncTree(ctx, "sync", set.SourceInclude, set.IncludeRoot, true, logger); err != nil {
			return err
		}
	}
	store, err := comp.NewStore(set.IncludeRoot)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return ApplyAll(ctx, rules, store, logger)
}

// runStaged 在 <root> 同级的暂存目录上完成同步与修补，成功后换入。
func runStaged(ctx context.Context, comp Components, set Settings, rules []contract.Rule, logger *diag.Logger) error {
	root := filepath.Clean(set.IncludeRoot)
	parent := filepath.Dir(root)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("staging: %w", err)
	}
	stage, err := os.MkdirTemp(parent, "."+filepath.Base(root)+".staging-*")
	if err != nil {
		return fmt.Errorf("staging: %w", err)
	}
	swapped := false
	defer func() {
		if !swapped {
			_ = os.RemoveAll(stage)
		}
	}()

	src := root
	if set.SourceInclude != "" {
		src = set.SourceInclude
	}
	if err := syncTree(ctx, "stage", src, stage, false, logger); err != nil {
		return err
	}
	// MkdirTemp 建出的目录为 0700；换入前对齐复制源的权限
	if err := matchMode(stage, src); err != nil {
		return fmt.Errorf("staging: %w", err)
	}
	store, err := comp.NewStore(stage)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := ApplyAll(ctx, rules, store, logger); err != nil {
		return err
	}
	if err := swapIn(stage, root, logger); err != nil {
		return err
	}
	swapped = true
	return nil
}

// syncTree 将 src 复制到 dst；replace=true 时先清空 dst。
func syncTree(ctx context.Context, stage, src, dst string, replace bool, logger *diag.Logger) error {
	term := diag.GetTerminal()
	term.StageStart(stage, 0)
	timer := logger.StartWithKV(stage, "copy", dst, "", map[string]string{"src": src})
	t0 := time.Now()
	var (
		n   int
		err error
	)
	if replace {
		n, err = fstree.Replace(ctx, src, dst)
	} else {
		n, err = fstree.Copy(ctx, src, dst)
	}
	term.StageFinish(err == nil, time.Since(t0))
	if err != nil {
		diag.Fail(logger, stage, "copy failed", err, timer, dst, "")
		return fmt.Errorf("%s %s -> %s: %w", stage, src, dst, err)
	}
	timer.Finish("copy", int64(n))
	diag.IncOp(stage, "finish", "success")
	return nil
}

// swapIn 以暂存目录替换 root：root → 备份，暂存 → root，删除备份。
// 第二步失败时将备份改回 root。
func swapIn(stage, root string, logger *diag.Logger) error {
	timer := logger.StartWith("swap", "rename", root, "")
	backup := ""
	if _, err := os.Stat(root); err == nil {
		backup = root + ".bak-" + strings.ReplaceAll(time.Now().UTC().Format("20060102-150405.000000000"), ".", "")
		if err := os.Rename(root, backup); err != nil {
			diag.Fail(logger, "swap", "backup failed", err, timer, root, "")
			return fmt.Errorf("swap: %w", err)
		}
	}
	if err := os.Rename(stage, root); err != nil {
		if backup != "" {
			_ = os.Rename(backup, root)
		}
		diag.Fail(logger, "swap", "rename failed", err, timer, root, "")
		return fmt.Errorf("swap: %w", err)
	}
	if backup != "" {
		if err := os.RemoveAll(backup); err != nil {
			logger.Warn("swap", "remove backup failed", map[string]string{"path": backup, "err": err.Error()})
		}
	}
	timer.Finish("rename", 0)
	diag.IncOp("swap", "finish", "success")
	return nil
}

func matchMode(dst, src string) error {
	st, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, st.Mode().Perm())
}

func sanity(comp Components, set Settings) error {
	if comp.Rules == nil || comp.NewStore == nil {
		return fmt.Errorf("%w: missing components", contract.ErrConfig)
	}
	if strings.TrimSpace(set.IncludeRoot) == "" {
		return fmt.Errorf("%w: include root empty", contract.ErrConfig)
	}
	return nil
}
