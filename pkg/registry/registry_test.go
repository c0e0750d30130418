package registry

import (
	"encoding/json"
	"testing"
)

// TestStrictUnmarshal 验证严格解码逻辑。
func TestStrictUnmarshal(t *testing.T) {
	type opt struct {
		A int `json:"a"`
	}
	var o opt
	if err := strictUnmarshal(nil, &o); err != nil || o.A != 0 {
		t.Fatalf("nil 输入失败: %v", err)
	}
	if err := strictUnmarshal(json.RawMessage(`{"a":1}`), &o); err != nil || o.A != 1 {
		t.Fatalf("合法 JSON 解析失败: %v", err)
	}
	if err := strictUnmarshal(json.RawMessage(`{"a":1,"b":2}`), &o); err == nil {
		t.Fatalf("未知字段应报错")
	}
}

// TestFactories 遍历注册表入口。
func TestFactories(t *testing.T) {
	t.Run("rule_source", func(t *testing.T) {
		for _, name := range []string{"json", "yaml"} {
			if _, err := RuleSource[name]("rules", json.RawMessage(`{"strict":true}`)); err != nil {
				t.Fatalf("%s: %v", name, err)
			}
			if _, err := RuleSource[name]("rules", json.RawMessage(`{"x":1}`)); err == nil {
				t.Fatalf("%s 未对未知字段报错", name)
			}
		}
	})
	t.Run("store", func(t *testing.T) {
		dir := t.TempDir()
		s, err := Store["fs"](dir, json.RawMessage(`{"atomic":false}`))
		if err != nil {
			t.Fatalf("store: %v", err)
		}
		if s.Root() != dir {
			t.Fatalf("root = %s", s.Root())
		}
		if _, err := Store["fs"](dir, json.RawMessage(`{"x":1}`)); err == nil {
			t.Fatalf("store 未对未知字段报错")
		}
	})
	t.Run("symbol_parser", func(t *testing.T) {
		syms, err := SymbolParser["ld"]().Parse("A = 0x80000000;")
		if err != nil || len(syms) != 1 {
			t.Fatalf("ld: %v %v", syms, err)
		}
		syms, err = SymbolParser["map"]().Parse("0x0000000080000000 A\n")
		if err != nil || len(syms) != 1 {
			t.Fatalf("map: %v %v", syms, err)
		}
	})
}

// TestInference 扩展名推断
func TestInference(t *testing.T) {
	cases := map[string]string{"a.json": "json", "a.YAML": "yaml", "a.yml": "yaml", "a": "json"}
	for in, want := range cases {
		if got := RuleSourceForPath(in); got != want {
			t.Fatalf("%s -> %s want %s", in, got, want)
		}
	}
	if SymbolFormatForPath("oot.map") != "map" || SymbolFormatForPath("oot_10_syms.ld") != "ld" {
		t.Fatalf("symbol format inference wrong")
	}
}
