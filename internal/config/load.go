package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
)

// EnvPrefix 为环境变量前缀。
const EnvPrefix = "Z64HDR_"

// Defaults 返回带有默认值的 Config 雏形（路径与原工具的 temp/ 布局一致）。
func Defaults() Config {
	return Config{
		IncludeRoot:   "temp/z64hdr-main/include",
		SourceInclude: "temp/oot-master/include",
		Rules:         "z64repls.json",
		Staging:       boolPtr(false),
		Symbols: []SymbolSource{
			{Name: "1.0", Path: "temp/z64hdr-main/oot_10_syms.ld", Format: "ld"},
			{Name: "debug", Path: "temp/z64hdr-main/oot_debug_syms.ld", Format: "ld"},
		},
		Logging: Logging{Level: "info", Dir: "logs"},
		Components: Components{
			Store: "fs",
		},
	}
}

// LoadJSON 从文件路径或原始 JSON 解析 Config（严格拒绝未知字段）。
func LoadJSON(path string, raw []byte) (Config, error) {
	var cfg Config
	var r io.Reader
	switch {
	case len(raw) > 0:
		r = bytes.NewReader(raw)
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		r = f
	default:
		return cfg, errors.New("no config source provided")
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Merge 按优先级合并（后者覆盖前者）。
// 仅标量/字符串/原样 JSON/整个列表为“替换”；不做深度合并。
func Merge(base, over Config) Config {
	out := base
	if s := strings.TrimSpace(over.IncludeRoot); s != "" {
		out.IncludeRoot = s
	}
	// source_include 显式 "-" 表示关闭同步
	if s := strings.TrimSpace(over.SourceInclude); s != "" {
		out.SourceInclude = s
	}
	if s := strings.TrimSpace(over.Rules); s != "" {
		out.Rules = s
	}
	if over.Staging != nil {
		out.Staging = boolPtr(*over.Staging)
	}
	if s := strings.TrimSpace(over.Report); s != "" {
		out.Report = s
	}
	// 符号来源整体替换
	if len(over.Symbols) > 0 {
		out.Symbols = append([]SymbolSource(nil), over.Symbols...)
	}
	if s := strings.TrimSpace(over.Logging.Level); s != "" {
		out.Logging.Level = s
	}
	if s := strings.TrimSpace(over.Logging.Dir); s != "" {
		out.Logging.Dir = s
	}

	// 组件名（空不覆盖）
	if over.Components.RuleSource != "" {
		out.Components.RuleSource = over.Components.RuleSource
	}
	if over.Components.Store != "" {
		out.Components.Store = over.Components.Store
	}

	// Options（完整替换对应键）
	if len(over.Options.RuleSource) > 0 {
		out.Options.RuleSource = cloneRaw(over.Options.RuleSource)
	}
	if len(over.Options.Store) > 0 {
		out.Options.Store = cloneRaw(over.Options.Store)
	}
	return out
}

// EnvOverlay 从环境变量构建一个 Config 覆盖（仅解析有限键集合）。
// 前缀 Z64HDR_；集合之外的键忽略。
// 支持：INCLUDE_ROOT, SOURCE_INCLUDE, RULES, STAGING, REPORT, LOG_LEVEL, LOG_DIR,
// COMPONENTS_RULE_SOURCE, COMPONENTS_STORE, OPTIONS_RULE_SOURCE_JSON, OPTIONS_STORE_JSON,
// SYMBOLS（name=path 逗号分隔）。
func EnvOverlay(environ []string) (Config, error) {
	var over Config
	for _, kv := range environ {
		if !strings.HasPrefix(kv, EnvPrefix) {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq <= len(EnvPrefix) {
			continue
		}
		key := strings.TrimPrefix(kv[:eq], EnvPrefix)
		val := strings.TrimSpace(kv[eq+1:])
		switch key {
		case "INCLUDE_ROOT":
			over.IncludeRoot = val
		case "SOURCE_INCLUDE":
			over.SourceInclude = val
		case "RULES":
			over.Rules = val
		case "STAGING":
			if val == "" {
				continue
			}
			b, err := strconv.ParseBool(val)
			if err != nil {
				return over, errors.New("Z64HDR_STAGING: " + err.Error())
			}
			over.Staging = boolPtr(b)
		case "REPORT":
			over.Report = val
		case "LOG_LEVEL":
			over.Logging.Level = val
		case "LOG_DIR":
			over.Logging.Dir = val
		case "COMPONENTS_RULE_SOURCE":
			over.Components.RuleSource = val
		case "COMPONENTS_STORE":
			over.Components.Store = val
		case "OPTIONS_RULE_SOURCE_JSON":
			// 空值视为未设置，避免清空 config.json 中的配置
			if val != "" {
				over.Options.RuleSource = json.RawMessage(val)
			}
		case "OPTIONS_STORE_JSON":
			if val != "" {
				over.Options.Store = json.RawMessage(val)
			}
		case "SYMBOLS":
			syms, err := parseSymbols(val)
			if err != nil {
				return over, err
			}
			over.Symbols = syms
		}
	}
	return over, nil
}

// parseSymbols 解析 "name=path[,name=path...]"；缺少 name= 时以路径基名为名。
func parseSymbols(s string) ([]SymbolSource, error) {
	var out []SymbolSource
	for _, part := range splitComma(s) {
		name, path, ok := strings.Cut(part, "=")
		if !ok {
			path = name
			name = ""
		}
		name, path = strings.TrimSpace(name), strings.TrimSpace(path)
		if path == "" {
			return nil, errors.New("Z64HDR_SYMBOLS: empty path in " + strconv.Quote(part))
		}
		if name == "" {
			name = baseName(path)
		}
		out = append(out, SymbolSource{Name: name, Path: path})
	}
	return out, nil
}

func baseName(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		p = p[i+1:]
	}
	if i := strings.LastIndexByte(p, '.'); i > 0 {
		p = p[:i]
	}
	return p
}

func cloneRaw(in json.RawMessage) json.RawMessage {
	if len(in) == 0 {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}

func splitComma(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
