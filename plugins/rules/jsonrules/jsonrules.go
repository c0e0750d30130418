package jsonrules

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"z64hdrgen/pkg/contract"
)

// Options 为 JSON 规则源的可选配置。
type Options struct {
	// Strict: 拒绝记录中的未知字段（默认 false，与 z64repls.json 的宽松写法兼容）。
	Strict bool `json:"strict"`
}

// Source 从 JSON 数组文件读取规则集（字段名与 z64repls.json 一致，type 可为名称或序数）。
type Source struct {
	path   string
	strict bool
}

var _ contract.RuleSource = (*Source)(nil)

// New 创建 JSON 规则源。
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

// Load 一次性读取并校验全部规则；任何失败都归为 ErrConfig。
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
	dec := json.NewDecoder(f)
	if s.strict {
		dec.DisallowUnknownFields()
	}
	var decls []contract.Decl
	if err := dec.Decode(&decls); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", contract.ErrConfig, s.path, err)
	}
	return contract.Rules(decls)
}
