// Package symtab 解析各构建变体的符号表并比较差异。
package symtab

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"z64hdrgen/internal/diag"
	"z64hdrgen/pkg/contract"
)

// Source: 一个符号来源（变体名 + 文件路径 + 解析器）。
type Source struct {
	Name   string
	Path   string
	Format string
	Parser contract.SymbolParser
}

// Table: 单个来源的解析结果（保持源文本行序）。
type Table struct {
	Name    string
	Path    string
	Symbols []contract.Symbol
}

// Load 并发读取并解析全部来源；结果顺序与 sources 一致。
// 任一来源失败即取消其余来源并返回首错。
func Load(ctx context.Context, sources []Source, logger *diag.Logger) ([]Table, error) {
	term := diag.GetTerminal()
	term.StageStart("symbols", len(sources))
	t0 := time.Now()
	out := make([]Table, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			tbl, err := loadOne(gctx, i, src, logger)
			if err != nil {
				return err
			}
			out[i] = tbl
			return nil
		})
	}
	err := g.Wait()
	term.StageFinish(err == nil, time.Since(t0))
	diag.ObserveDuration("symbols", "load", time.Since(t0).Milliseconds())
	if err != nil {
		return nil, err
	}
	return out, nil
}

func loadOne(ctx context.Context, idx int, src Source, logger *diag.Logger) (Table, error) {
	id := strconv.Itoa(idx)
	timer := logger.StartWithKV("symbols", "parse", src.Path, id, map[string]string{"name": src.Name, "format": src.Format})
	if src.Parser == nil {
		err := fmt.Errorf("%w: symbols %s: no parser for format %q", contract.ErrConfig, src.Name, src.Format)
		diag.Fail(logger, "symbols", "parse failed", err, timer, src.Path, id)
		return Table{}, err
	}
	if err := ctx.Err(); err != nil {
		logger.ErrorWith("symbols", string(diag.CodeCancel), "canceled before read", timer.Since(), src.Path, id)
		return Table{}, err
	}
	b, err := os.ReadFile(src.Path)
	if err != nil {
		diag.Fail(logger, "symbols", "read failed", err, timer, src.Path, id)
		return Table{}, fmt.Errorf("symbols %s: %w", src.Name, err)
	}
	syms, err := src.Parser.Parse(string(b))
	if err != nil {
		diag.Fail(logger, "symbols", "parse failed", err, timer, src.Path, id)
		return Table{}, fmt.Errorf("symbols %s (%s): %w", src.Name, src.Path, err)
	}
	timer.Finish("parse", int64(len(syms)))
	diag.IncOp("symbols", "finish", "success")
	return Table{Name: src.Name, Path: src.Path, Symbols: syms}, nil
}
