package config

import "encoding/json"

// DefaultTemplateConfig 返回一个“可运行”的默认配置模板：
// - 路径与原工具 temp/ 布局一致；
// - 组件名采用仓库内置实现；
// - 选项包含全部键，值为安全中性默认。
func DefaultTemplateConfig() Config {
	d := Defaults()
	cfg := Config{
		IncludeRoot:   d.IncludeRoot,
		SourceInclude: d.SourceInclude,
		Rules:         d.Rules,
		Staging:       boolPtr(false),
		Report:        "",
		Symbols:       append([]SymbolSource(nil), d.Symbols...),
		Logging:       d.Logging,
		Components:    Components{Store: d.Components.Store},
	}
	cfg.Options.RuleSource = json.RawMessage(`{
  "strict": false
}`)
	cfg.Options.Store = json.RawMessage(`{
  "atomic": true,
  "perm_file": 0,
  "perm_dir": 0,
  "buf_size": 65536
}`)
	return cfg
}

// TemplateEnv 返回 .env 模板内容（注释形式，不覆盖 config.json）。
func TemplateEnv() string {
	return `# z64hdrgen 环境变量（取消注释以覆盖 config.json）
# Z64HDR_INCLUDE_ROOT=temp/z64hdr-main/include
# Z64HDR_SOURCE_INCLUDE=temp/oot-master/include
# Z64HDR_RULES=z64repls.json
# Z64HDR_STAGING=false
# Z64HDR_REPORT=
# Z64HDR_SYMBOLS=1.0=temp/z64hdr-main/oot_10_syms.ld,debug=temp/z64hdr-main/oot_debug_syms.ld
# Z64HDR_LOG_LEVEL=info
# Z64HDR_COMPONENTS_RULE_SOURCE=json
# Z64HDR_COMPONENTS_STORE=fs
`
}
