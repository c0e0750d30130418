package config

import (
	"errors"
	"fmt"
	"strings"

	"z64hdrgen/internal/patch"
	"z64hdrgen/internal/symtab"
	"z64hdrgen/pkg/contract"
	"z64hdrgen/pkg/registry"
)

// Validate 对最小必要边界做静态校验。
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.IncludeRoot) == "" {
		return errors.New("config: include_root empty")
	}
	if strings.TrimSpace(cfg.Rules) == "" {
		return errors.New("config: rules empty")
	}
	if src := syncSource(cfg.SourceInclude); src != "" && sameDir(src, cfg.IncludeRoot) {
		return errors.New("config: source_include must differ from include_root")
	}
	if name := ruleSourceName(cfg); registry.RuleSource[name] == nil {
		return fmt.Errorf("config: rule_source %q not registered", name)
	}
	if name := effName(cfg.Components.Store, Defaults().Components.Store); registry.Store[name] == nil {
		return fmt.Errorf("config: store %q not registered", name)
	}
	names := map[string]bool{}
	for i, s := range cfg.Symbols {
		if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.Path) == "" {
			return fmt.Errorf("config: symbols[%d] requires name and path", i)
		}
		if names[s.Name] {
			return fmt.Errorf("config: symbols[%d] duplicate name %q", i, s.Name)
		}
		names[s.Name] = true
		if f := symbolFormat(s); registry.SymbolParser[f] == nil {
			return fmt.Errorf("config: symbols[%d] format %q not registered", i, f)
		}
	}
	return nil
}

// Assemble 构造修补组件、运行设置与符号来源。
// 严格 Options 解析在 registry（工厂）层进行；此处只传 raw JSON。
// 规则源在此构造但不读取：读取发生在 patch.Run 中。
func Assemble(cfg Config) (patch.Components, patch.Settings, []symtab.Source, error) {
	if err := Validate(cfg); err != nil {
		return patch.Components{}, patch.Settings{}, nil, fmt.Errorf("%w: %w", contract.ErrConfig, err)
	}

	rs, err := registry.RuleSource[ruleSourceName(cfg)](cfg.Rules, cfg.Options.RuleSource)
	if err != nil {
		return patch.Components{}, patch.Settings{}, nil, fmt.Errorf("%w: rule_source: %w", contract.ErrConfig, err)
	}
	newStore := registry.Store[effName(cfg.Components.Store, Defaults().Components.Store)]
	storeOpts := cloneRaw(cfg.Options.Store)
	comp := patch.Components{
		Rules: rs,
		NewStore: func(root string) (contract.FileStore, error) {
			return newStore(root, storeOpts)
		},
	}
	set := patch.Settings{
		IncludeRoot:   cfg.IncludeRoot,
		SourceInclude: syncSource(cfg.SourceInclude),
		Staging:       cfg.StagingEnabled(),
	}

	syms := make([]symtab.Source, 0, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		f := symbolFormat(s)
		syms = append(syms, symtab.Source{Name: s.Name, Path: s.Path, Format: f, Parser: registry.SymbolParser[f]()})
	}
	return comp, set, syms, nil
}

func ruleSourceName(cfg Config) string {
	return effName(cfg.Components.RuleSource, registry.RuleSourceForPath(cfg.Rules))
}

func symbolFormat(s SymbolSource) string {
	return effName(strings.ToLower(strings.TrimSpace(s.Format)), registry.SymbolFormatForPath(s.Path))
}

// syncSource: "-" 关闭同步。
func syncSource(s string) string {
	s = strings.TrimSpace(s)
	if s == "-" {
		return ""
	}
	return s
}

func sameDir(a, b string) bool {
	return contract.NormalizeFileID(a) == contract.NormalizeFileID(b)
}

func effName(got, def string) string {
	if got == "" {
		return def
	}
	return got
}
