package fstree

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Copy 将 src 目录树递归复制到 dst（目录按需创建，同名文件覆盖）。
// 按字典序遍历；目录符号链接不跟随，指向常规文件的符号链接按内容复制。
// 返回复制的文件数。
func Copy(ctx context.Context, src, dst string) (int, error) {
	st, err := os.Stat(src)
	if err != nil {
		return 0, err
	}
	if !st.IsDir() {
		return 0, fmt.Errorf("copy source is not a directory: %s", src)
	}
	n := 0
	err = copyDir(ctx, src, dst, st.Mode().Perm(), &n)
	return n, err
}

// Replace 删除 dst 后以 src 的完整副本替代（对应“清空 include 再从 decomp 复制”）。
func Replace(ctx context.Context, src, dst string) (int, error) {
	if _, err := os.Stat(src); err != nil {
		return 0, err
	}
	if err := os.RemoveAll(dst); err != nil {
		return 0, err
	}
	return Copy(ctx, src, dst)
}

func copyDir(ctx context.Context, src, dst string, perm os.FileMode, n *int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if err := os.MkdirAll(dst, perm|0o700); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	// 稳定顺序：字典序
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		sp := filepath.Join(src, e.Name())
		dp := filepath.Join(dst, e.Name())
		if e.IsDir() {
			info, err := e.Info()
			if err != nil {
				return err
			}
			if err := copyDir(ctx, sp, dp, info.Mode().Perm(), n); err != nil {
				return err
			}
			continue
		}
		info, err := os.Stat(sp) // 跟随符号链接
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			// 目录符号链接、设备等：跳过
			continue
		}
		if err := copyFile(sp, dp, info.Mode().Perm()); err != nil {
			return err
		}
		*n++
	}
	return nil
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
