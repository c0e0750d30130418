package fstree

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func mkfile(t *testing.T, p, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

// TestCopy 递归复制并覆盖同名文件
func TestCopy(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "include")
	mkfile(t, filepath.Join(src, "z64.h"), "z64")
	mkfile(t, filepath.Join(src, "tables", "actor_table.h"), "tbl")
	mkfile(t, filepath.Join(dst, "z64.h"), "old")
	mkfile(t, filepath.Join(dst, "extra.h"), "keep")

	n, err := Copy(context.Background(), src, dst)
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if n != 2 {
		t.Fatalf("copied %d files, want 2", n)
	}
	if b, _ := os.ReadFile(filepath.Join(dst, "z64.h")); string(b) != "z64" {
		t.Fatalf("z64.h not overwritten: %q", b)
	}
	if b, _ := os.ReadFile(filepath.Join(dst, "tables", "actor_table.h")); string(b) != "tbl" {
		t.Fatalf("nested file missing: %q", b)
	}
	if _, err := os.Stat(filepath.Join(dst, "extra.h")); err != nil {
		t.Fatalf("copy must not delete unrelated files")
	}
}

// TestReplace 目标被完整替换（陈旧文件被删除）
func TestReplace(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	mkfile(t, filepath.Join(src, "a.h"), "a")
	mkfile(t, filepath.Join(dst, "stale.h"), "stale")

	if _, err := Replace(context.Background(), src, dst); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "stale.h")); !os.IsNotExist(err) {
		t.Fatalf("stale file should be removed, stat err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "a.h")); err != nil {
		t.Fatalf("a.h missing: %v", err)
	}
}

// TestCopyErrors 源不存在/不是目录/ctx 取消
func TestCopyErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Copy(context.Background(), filepath.Join(dir, "missing"), dir); err == nil {
		t.Fatalf("expect error for missing source")
	}
	f := filepath.Join(dir, "f")
	mkfile(t, f, "x")
	if _, err := Copy(context.Background(), f, filepath.Join(dir, "out")); err == nil {
		t.Fatalf("expect error for file source")
	}
	if _, err := Replace(context.Background(), filepath.Join(dir, "missing"), filepath.Join(dir, "out")); err == nil {
		t.Fatalf("replace must fail before deleting when source is missing")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Copy(ctx, dir, filepath.Join(t.TempDir(), "out")); err == nil {
		t.Fatalf("expect ctx error")
	}
}
