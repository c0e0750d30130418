package patch

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"z64hdrgen/internal/textedit"
	"z64hdrgen/pkg/contract"
	fsstore "z64hdrgen/plugins/store/filesystem"
)

// 内存桩件 ----------------------------------------------------
type memStore struct {
	files  map[contract.FileID]string
	writes int
}

func newMemStore(files map[contract.FileID]string) *memStore {
	return &memStore{files: files}
}

func (m *memStore) Read(ctx context.Context, id contract.FileID) ([]byte, error) {
	s, ok := m.files[id]
	if !ok {
		return nil, contract.ErrTargetMissing
	}
	return []byte(s), nil
}

func (m *memStore) Write(ctx context.Context, id contract.FileID, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.files[id] = string(b)
	m.writes++
	return nil
}

func (m *memStore) Root() string { return "mem" }

type staticRules struct {
	rules []contract.Rule
	err   error
}

func (s staticRules) Load(ctx context.Context) ([]contract.Rule, error) { return s.rules, s.err }

type unknownRule struct{ contract.FileInsert }

const actorH = "#pragma once\n\ntypedef struct {\n    s32 a;\n} Foo;\n\ntypedef struct Actor {\n    s16 id;\n    s16 params;\n} Actor;\n"

// 同一文件中逐字相同的两个块
const twinBlock = "typedef struct {\n    s32 a;\n} X;\n"

// ------------------------------------------------------------

func TestApplyDispatch(t *testing.T) {
	nl := textedit.Newline
	cases := []struct {
		name string
		rule contract.Rule
		in   string
		want string
	}{
		{"typedef", contract.TypedefInsert{File: "a.h", Typedef: "Actor", Line: 2, Text: "    s16 pad;"}, actorH,
			"#pragma once\n\ntypedef struct {\n    s32 a;\n} Foo;\n\ntypedef struct Actor {\n    s16 id;\n    s16 pad;" + nl + "    s16 params;\n} Actor;\n"},
		{"typedef first of identical blocks", contract.TypedefInsert{File: "a.h", Typedef: "X", Line: 1, Text: "    s32 b;"}, twinBlock + "\n" + twinBlock,
			"typedef struct {\n    s32 b;" + nl + "    s32 a;\n} X;\n\n" + twinBlock},
		{"file", contract.FileInsert{File: "a.h", Line: 1, Text: "#include \"z64.h\""}, "#pragma once\nx\n",
			"#pragma once\n#include \"z64.h\"" + nl + "x\n"},
		{"text first only", contract.TextReplace{File: "a.h", Search: "s16", New: "u16"}, "s16 a; s16 b;", "u16 a; s16 b;"},
		{"text missing is no-op", contract.TextReplace{File: "a.h", Search: "u64", New: "u16"}, "s16 a;", "s16 a;"},
		{"expr whole word", contract.ExprReplace{File: "a.h", Search: "Foo", New: "Baz"}, "Foo FooBar Foo", "Baz FooBar Baz"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Apply(c.rule, c.in)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestApplyErrors(t *testing.T) {
	_, err := Apply(contract.TypedefInsert{File: "a.h", Typedef: "Missing", Line: 0, Text: "x"}, actorH)
	require.ErrorIs(t, err, contract.ErrScopeNotFound)

	_, err = Apply(contract.TypedefInsert{File: "a.h", Typedef: "Foo", Line: 9, Text: "x"}, actorH)
	require.ErrorIs(t, err, contract.ErrIndexOutOfRange)

	_, err = Apply(contract.FileInsert{File: "a.h", Line: -1, Text: "x"}, "a\n")
	require.ErrorIs(t, err, contract.ErrIndexOutOfRange)

	_, err = Apply(unknownRule{}, "a")
	require.ErrorIs(t, err, contract.ErrUnknownRule)
}

// ExprReplace 幂等；TextReplace/TypedefInsert/FileInsert 重复应用会继续改变文本
func TestIdempotenceAsymmetry(t *testing.T) {
	expr := contract.ExprReplace{File: "a.h", Search: "Foo", New: "Baz"}
	once, _ := Apply(expr, actorH)
	twice, _ := Apply(expr, once)
	assert.NotEqual(t, actorH, once)
	assert.Equal(t, once, twice)

	text := contract.TextReplace{File: "a.h", Search: "s16", New: "s16 s16"}
	once, _ = Apply(text, actorH)
	twice, _ = Apply(text, once)
	assert.NotEqual(t, once, twice)

	ins := contract.TypedefInsert{File: "a.h", Typedef: "Actor", Line: 1, Text: "    s16 pad;"}
	once, _ = Apply(ins, actorH)
	twice, err := Apply(ins, once)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(twice, "s16 pad;"))

	fi := contract.FileInsert{File: "a.h", Line: 0, Text: "// gen"}
	once, _ = Apply(fi, actorH)
	twice, _ = Apply(fi, once)
	assert.Equal(t, 2, strings.Count(twice, "// gen"))
}

// 规则严格按序：后续规则看到前序规则的输出
func TestApplyAllOrder(t *testing.T) {
	st := newMemStore(map[contract.FileID]string{"z64.h": "typedef struct {\n} Foo;\n"})
	rules := []contract.Rule{
		contract.TypedefInsert{File: "z64.h", Typedef: "Foo", Line: 1, Text: "    s32 x;"},
		contract.ExprReplace{File: "z64.h", Search: "Foo", New: "Bar"},
		contract.TypedefInsert{File: "z64.h", Typedef: "Bar", Line: 2, Text: "    s32 y;"},
	}
	require.NoError(t, ApplyAll(context.Background(), rules, st, nil))
	nl := textedit.Newline
	assert.Equal(t, "typedef struct {\n    s32 x;"+nl+"    s32 y;"+nl+"} Bar;\n", st.files["z64.h"])
	assert.Equal(t, 3, st.writes)
}

// 首错即停：之前的修改保留，之后的规则不执行
func TestApplyAllFailFast(t *testing.T) {
	st := newMemStore(map[contract.FileID]string{"a.h": "A\n", "b.h": "B\n"})
	rules := []contract.Rule{
		contract.FileInsert{File: "a.h", Line: 0, Text: "X"},
		contract.FileInsert{File: "missing.h", Line: 0, Text: "X"},
		contract.FileInsert{File: "b.h", Line: 0, Text: "X"},
	}
	err := ApplyAll(context.Background(), rules, st, nil)
	var re *contract.RuleError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 1, re.Index)
	assert.Equal(t, contract.FileID("missing.h"), re.File)
	assert.Equal(t, contract.KindFileInsert, re.Kind)
	require.ErrorIs(t, err, contract.ErrTargetMissing)
	assert.Equal(t, "X"+textedit.Newline+"A\n", st.files["a.h"])
	assert.Equal(t, "B\n", st.files["b.h"])
}

func TestApplyAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st := newMemStore(map[contract.FileID]string{"a.h": "A\n"})
	err := ApplyAll(ctx, []contract.Rule{contract.FileInsert{File: "a.h", Line: 0, Text: "X"}}, st, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, st.writes)
}

// 文件系统辅助 -------------------------------------------------
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	return string(b)
}

func entryNames(t *testing.T, dir string) []string {
	t.Helper()
	ents, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range ents {
		names = append(names, e.Name())
	}
	return names
}

func fsComponents(rules ...contract.Rule) Components {
	return Components{
		Rules: staticRules{rules: rules},
		NewStore: func(root string) (contract.FileStore, error) {
			return fsstore.New(root, nil)
		},
	}
}

// FileInsert 第 3 行插入后，其余各行保持不变
func TestRunFileInsertLine3(t *testing.T) {
	root := filepath.Join(t.TempDir(), "include")
	orig := "l0\nl1\nl2\nl3\nl4\n"
	writeTree(t, root, map[string]string{"macros.h": orig})

	comp := fsComponents(contract.FileInsert{File: "macros.h", Line: 3, Text: "#define X 1"})
	require.NoError(t, Run(context.Background(), comp, Settings{IncludeRoot: root}, nil))

	got := strings.ReplaceAll(readFile(t, filepath.Join(root, "macros.h")), "\r\n", "\n")
	lines := strings.Split(got, "\n")
	assert.Equal(t, "#define X 1", lines[3])
	rest := append(append([]string{}, lines[:3]...), lines[4:]...)
	assert.Equal(t, orig, strings.Join(rest, "\n"))
}

func TestRunRuleLoadFailureTouchesNothing(t *testing.T) {
	root := filepath.Join(t.TempDir(), "include")
	src := filepath.Join(t.TempDir(), "src")
	writeTree(t, root, map[string]string{"a.h": "A\n"})
	writeTree(t, src, map[string]string{"b.h": "B\n"})

	comp := fsComponents()
	comp.Rules = staticRules{err: errors.New("bad json")}
	err := Run(context.Background(), comp, Settings{IncludeRoot: root, SourceInclude: src}, nil)
	require.ErrorIs(t, err, contract.ErrConfig)
	assert.Equal(t, "A\n", readFile(t, filepath.Join(root, "a.h")))
	assert.NoFileExists(t, filepath.Join(root, "b.h"))
}

// include 同步：替换为源树（陈旧文件删除），再应用规则
func TestRunSyncReplacesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "include")
	src := filepath.Join(t.TempDir(), "decomp", "include")
	writeTree(t, root, map[string]string{"stale.h": "old\n"})
	writeTree(t, src, map[string]string{"z64.h": "Foo\n", "tables/t.h": "T\n"})

	comp := fsComponents(contract.ExprReplace{File: "z64.h", Search: "Foo", New: "Bar"})
	require.NoError(t, Run(context.Background(), comp, Settings{IncludeRoot: root, SourceInclude: src}, nil))

	assert.NoFileExists(t, filepath.Join(root, "stale.h"))
	assert.Equal(t, "Bar\n", readFile(t, filepath.Join(root, "z64.h")))
	assert.Equal(t, "T\n", readFile(t, filepath.Join(root, "tables", "t.h")))
	assert.Equal(t, "Foo\n", readFile(t, filepath.Join(src, "z64.h")))
}

// 暂存模式：成功时换入，目录中不留暂存/备份
func TestRunStagingSuccess(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "include")
	writeTree(t, root, map[string]string{"a.h": "A\n"})

	comp := fsComponents(contract.TextReplace{File: "a.h", Search: "A", New: "B"})
	require.NoError(t, Run(context.Background(), comp, Settings{IncludeRoot: root, Staging: true}, nil))
	assert.Equal(t, "B\n", readFile(t, filepath.Join(root, "a.h")))
	assert.Equal(t, []string{"include"}, entryNames(t, parent))
}

// 暂存换入后 include 根沿用复制源的目录权限
func TestRunStagingKeepsRootMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	cases := []struct {
		name string
		sync bool
	}{
		{"copy of root", false},
		{"copy of source", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			root := filepath.Join(t.TempDir(), "include")
			writeTree(t, root, map[string]string{"a.h": "A\n"})
			require.NoError(t, os.Chmod(root, 0o750))
			set := Settings{IncludeRoot: root, Staging: true}
			if c.sync {
				src := filepath.Join(t.TempDir(), "src")
				writeTree(t, src, map[string]string{"a.h": "A\n"})
				require.NoError(t, os.Chmod(src, 0o751))
				set.SourceInclude = src
			}

			comp := fsComponents(contract.FileInsert{File: "a.h", Line: 0, Text: "// gen"})
			require.NoError(t, Run(context.Background(), comp, set, nil))

			st, err := os.Stat(root)
			require.NoError(t, err)
			want := os.FileMode(0o750)
			if c.sync {
				want = 0o751
			}
			assert.Equal(t, want, st.Mode().Perm())
		})
	}
}

// 暂存模式：失败时 include 根逐字节保持原样
func TestRunStagingFailureLeavesRootIntact(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "include")
	writeTree(t, root, map[string]string{"a.h": "A\n", "b.h": "B\n"})

	comp := fsComponents(
		contract.TextReplace{File: "a.h", Search: "A", New: "Z"},
		contract.TypedefInsert{File: "b.h", Typedef: "Nope", Line: 0, Text: "x"},
	)
	err := Run(context.Background(), comp, Settings{IncludeRoot: root, Staging: true}, nil)
	require.ErrorIs(t, err, contract.ErrScopeNotFound)
	assert.Equal(t, "A\n", readFile(t, filepath.Join(root, "a.h")))
	assert.Equal(t, "B\n", readFile(t, filepath.Join(root, "b.h")))
	assert.Equal(t, []string{"include"}, entryNames(t, parent))
}

// 非暂存模式：失败时保留部分修改
func TestRunInPlaceFailureIsPartial(t *testing.T) {
	root := filepath.Join(t.TempDir(), "include")
	writeTree(t, root, map[string]string{"a.h": "A\n"})
	comp := fsComponents(
		contract.TextReplace{File: "a.h", Search: "A", New: "Z"},
		contract.FileInsert{File: "gone.h", Line: 0, Text: "x"},
	)
	err := Run(context.Background(), comp, Settings{IncludeRoot: root}, nil)
	require.ErrorIs(t, err, contract.ErrTargetMissing)
	assert.Equal(t, "Z\n", readFile(t, filepath.Join(root, "a.h")))
}

func TestRunSanity(t *testing.T) {
	require.ErrorIs(t, Run(context.Background(), Components{}, Settings{IncludeRoot: "x"}, nil), contract.ErrConfig)
	require.ErrorIs(t, Run(context.Background(), fsComponents(), Settings{}, nil), contract.ErrConfig)
}
