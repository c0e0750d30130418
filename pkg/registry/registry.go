package registry

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"z64hdrgen/pkg/contract"
	jrules "z64hdrgen/plugins/rules/jsonrules"
	yrules "z64hdrgen/plugins/rules/yamlrules"
	sfs "z64hdrgen/plugins/store/filesystem"
	ld "z64hdrgen/plugins/symbols/linker"
	mapf "z64hdrgen/plugins/symbols/mapfile"
)

// strictUnmarshal: 使用 DisallowUnknownFields 严格解码，拒绝未知字段。
func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		// 保持零值（默认选项）
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// NewRuleSource 工厂签名：规则文件路径 + 原样 JSON Options。
type NewRuleSource func(path string, raw json.RawMessage) (contract.RuleSource, error)

// NewStore 工厂签名：根目录 + 原样 JSON Options。
// 以根目录为参数，便于暂存模式在副本目录上构造同配置的存储。
type NewStore func(root string, raw json.RawMessage) (contract.FileStore, error)

// NewSymbolParser 工厂签名（解析器均无配置项）。
type NewSymbolParser func() contract.SymbolParser

// RuleSource 工厂注册表（显式、零反射）。
var RuleSource = map[string]NewRuleSource{
	// json: z64repls.json 数组格式
	"json": func(path string, raw json.RawMessage) (contract.RuleSource, error) {
		var opts jrules.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return jrules.New(path, &opts)
	},
	// yaml: 同字段的 YAML 序列
	"yaml": func(path string, raw json.RawMessage) (contract.RuleSource, error) {
		var opts yrules.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return yrules.New(path, &opts)
	},
}

// Store 工厂注册表。
var Store = map[string]NewStore{
	// fs: 文件系统存储（覆盖写/原子替换可配置）
	"fs": func(root string, raw json.RawMessage) (contract.FileStore, error) {
		var opts sfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return sfs.New(root, &opts)
	},
}

// SymbolParser 工厂注册表（按符号源格式名选择）。
var SymbolParser = map[string]NewSymbolParser{
	"ld":  func() contract.SymbolParser { return ld.New() },
	"map": func() contract.SymbolParser { return mapf.New() },
}

// RuleSourceForPath 根据扩展名推断规则源名称：.yaml/.yml → yaml，其余 → json。
func RuleSourceForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// SymbolFormatForPath 根据扩展名推断符号源格式：.map → map，其余 → ld。
func SymbolFormatForPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".map") {
		return "map"
	}
	return "ld"
}
