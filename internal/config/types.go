package config

import (
	"encoding/json"
)

// Config: 运行期只读配置（一次解析，运行期不变）。
// JSON 使用 snake_case；未知字段在解析期失败。
type Config struct {
	// IncludeRoot: 被修补的 z64hdr include 目录。
	IncludeRoot string `json:"include_root"`
	// SourceInclude: 反编译项目的 include 目录；非空时修补前先整体同步。
	SourceInclude string `json:"source_include"`
	// Rules: 规则集文件（z64repls.json 或同字段 YAML）。
	Rules string `json:"rules"`
	// Staging: 在暂存副本上修补，全部成功后换入。
	// 指针以区分“未设置”与显式 false。
	Staging *bool `json:"staging,omitempty"`
	// Report: 符号比较报告输出路径；空则不写。
	Report string `json:"report"`
	// Symbols: 符号来源列表（按此顺序解析与报告）。
	Symbols []SymbolSource `json:"symbols"`

	Logging Logging `json:"logging"`

	// 组件名选择（空则使用默认名）。
	Components Components `json:"components"`

	// 各组件 Options 子树，原样 JSON 传入工厂。
	Options Options `json:"options"`
}

// SymbolSource: 单个符号来源。Format 为空时按扩展名推断（.map → map，其余 → ld）。
type SymbolSource struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Format string `json:"format,omitempty"`
}

// Logging: 日志等级与目录；轮转策略为固定默认。
type Logging struct {
	Level string `json:"level"`
	Dir   string `json:"dir,omitempty"`
}

// Components: 组件名选择（注册表中的实现名）。
// RuleSource 为空时按规则文件扩展名推断。
type Components struct {
	RuleSource string `json:"rule_source"`
	Store      string `json:"store"`
}

// Options: 各组件的原样 JSON Options。
type Options struct {
	RuleSource json.RawMessage `json:"rule_source"`
	Store      json.RawMessage `json:"store"`
}

// StagingEnabled 返回 Staging 的有效值（未设置为 false）。
func (c Config) StagingEnabled() bool { return c.Staging != nil && *c.Staging }

func boolPtr(b bool) *bool { return &b }
