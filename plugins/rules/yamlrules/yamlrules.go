package yamlrules

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"z64hdrgen/pkg/contract"
)

// Options 为 YAML 规则源的可选配置。
type Options struct {
	// Strict: 拒绝记录中的未知键。
	Strict bool `json:"strict"`
}

// decl 与 contract.Decl 字段一一对应；type 以字符串接收（名称或序数均可）。
type decl struct {
	Type         string `yaml:"type"`
	Filename     string `yaml:"filename"`
	TypedefName  string `yaml:"typedefname,omitempty"`
	LineNo       int    `yaml:"lineno,omitempty"`
	ReplacedText string `yaml:"replacedtext,omitempty"`
	NewText      string `yaml:"newtext,omitempty"`
}

// Source 从 YAML 序列读取规则集。
type Source struct {
	path   string
	strict bool
}

var _ contract.RuleSource = (*Source)(nil)

// New 创建 YAML 规则源。
func New(path string, opts *Options) (*Source, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: rules path empty", contract.ErrConfig)
	}
	s := &Source{path: path}
	if opts != nil {
		s.strict = opts.Strict
	}
	return s, nil
}

// Load 一次性读取并校验全部规则；空文件视为空规则集。
func (s *Source) Load(ctx context.Context) ([]contract.Rule, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contract.ErrConfig, err)
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(s.strict)
	var raw []decl
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: %v", contract.ErrConfig, s.path, err)
	}
	decls := make([]contract.Decl, 0, len(raw))
	for i, d := range raw {
		// 缺省 type 与 JSON 零值一致（typedefinsert）
		if strings.TrimSpace(d.Type) == "" {
			d.Type = contract.KindTypedefInsert.String()
		}
		kind, err := contract.ParseRuleKind(d.Type)
		if err != nil {
			return nil, fmt.Errorf("rule #%d: %w: %w", i, contract.ErrConfig, err)
		}
		decls = append(decls, contract.Decl{
			Type:         kind,
			Filename:     d.Filename,
			TypedefName:  d.TypedefName,
			LineNo:       d.LineNo,
			ReplacedText: d.ReplacedText,
			NewText:      d.NewText,
		})
	}
	return contract.Rules(decls)
}
