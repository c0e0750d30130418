package contract

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RuleKind: 规则类型（封闭集合）。序数与规则文件中的数值写法一致。
type RuleKind int

const (
	KindTypedefInsert RuleKind = iota
	KindFileInsert
	KindTextReplace
	KindExprReplace
)

var kindNames = [...]string{"typedefinsert", "fileinsert", "textreplace", "exprreplace"}

func (k RuleKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// ParseRuleKind 接受类型名（大小写不敏感）或序数字符串。
func ParseRuleKind(s string) (RuleKind, error) {
	s = strings.TrimSpace(s)
	for i, n := range kindNames {
		if strings.EqualFold(s, n) {
			return RuleKind(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n < len(kindNames) {
		return RuleKind(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRule, s)
}

// UnmarshalJSON 同时接受 "fileinsert" 与 1 两种写法。
func (k *RuleKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int
		if nerr := json.Unmarshal(b, &n); nerr != nil {
			return fmt.Errorf("%w: type %s", ErrUnknownRule, string(b))
		}
		s = strconv.Itoa(n)
	}
	v, err := ParseRuleKind(s)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

func (k RuleKind) MarshalJSON() ([]byte, error) { return json.Marshal(k.String()) }

// Rule: 一条声明式编辑指令。封闭和类型：仅本包内的四种实现。
// 规则加载后不可变；引擎严格按给定顺序应用。
type Rule interface {
	Kind() RuleKind
	Target() FileID
	rule()
}

// TypedefInsert: 在 typedef struct 块内第 Line 行（0 起，相对块文本）插入 Text。
type TypedefInsert struct {
	File    FileID
	Typedef string
	Line    int
	Text    string
}

// FileInsert: 在整个文件第 Line 行（0 起）插入 Text。
type FileInsert struct {
	File FileID
	Line int
	Text string
}

// TextReplace: 将文件中首个字面量 Search 替换为 New。
type TextReplace struct {
	File   FileID
	Search string
	New    string
}

// ExprReplace: 将文件中所有整词 Search 替换为 New。
type ExprReplace struct {
	File   FileID
	Search string
	New    string
}

func (TypedefInsert) Kind() RuleKind { return KindTypedefInsert }
func (FileInsert) Kind() RuleKind    { return KindFileInsert }
func (TextReplace) Kind() RuleKind   { return KindTextReplace }
func (ExprReplace) Kind() RuleKind   { return KindExprReplace }

func (r TypedefInsert) Target() FileID { return r.File }
func (r FileInsert) Target() FileID    { return r.File }
func (r TextReplace) Target() FileID   { return r.File }
func (r ExprReplace) Target() FileID   { return r.File }

func (TypedefInsert) rule() {}
func (FileInsert) rule()    {}
func (TextReplace) rule()   {}
func (ExprReplace) rule()   {}

// Decl: 规则文件中的一条原始记录（字段名与 z64repls.json 一致）。
type Decl struct {
	Type         RuleKind `json:"type"`
	Filename     string   `json:"filename"`
	TypedefName  string   `json:"typedefname,omitempty"`
	LineNo       int      `json:"lineno,omitempty"`
	ReplacedText string   `json:"replacedtext,omitempty"`
	NewText      string   `json:"newtext,omitempty"`
}

// Rule 校验必需字段并转换为具体规则；缺失字段返回 ErrConfig。
// 行号范围不在此校验：只有面对当前文本时才能判定。
func (d Decl) Rule() (Rule, error) {
	if strings.TrimSpace(d.Filename) == "" {
		return nil, fmt.Errorf("%w: %s: filename empty", ErrConfig, d.Type)
	}
	file := NormalizeFileID(d.Filename)
	switch d.Type {
	case KindTypedefInsert:
		if strings.TrimSpace(d.TypedefName) == "" {
			return nil, fmt.Errorf("%w: %s %s: typedefname empty", ErrConfig, d.Type, file)
		}
		return TypedefInsert{File: file, Typedef: strings.TrimSpace(d.TypedefName), Line: d.LineNo, Text: d.NewText}, nil
	case KindFileInsert:
		return FileInsert{File: file, Line: d.LineNo, Text: d.NewText}, nil
	case KindTextReplace:
		if d.ReplacedText == "" {
			return nil, fmt.Errorf("%w: %s %s: replacedtext empty", ErrConfig, d.Type, file)
		}
		return TextReplace{File: file, Search: d.ReplacedText, New: d.NewText}, nil
	case KindExprReplace:
		if d.ReplacedText == "" {
			return nil, fmt.Errorf("%w: %s %s: replacedtext empty", ErrConfig, d.Type, file)
		}
		return ExprReplace{File: file, Search: d.ReplacedText, New: d.NewText}, nil
	default:
		return nil, fmt.Errorf("%w: %w: %s", ErrConfig, ErrUnknownRule, d.Type)
	}
}

// Rules 按顺序转换整组记录；首个无效记录即失败（带序号）。
func Rules(decls []Decl) ([]Rule, error) {
	out := make([]Rule, 0, len(decls))
	for i, d := range decls {
		r, err := d.Rule()
		if err != nil {
			return nil, fmt.Errorf("rule #%d: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// RuleSource: 规则集来源。一次性读取整组规则；失败时不得触碰任何目标文件。
type RuleSource interface {
	Load(ctx context.Context) ([]Rule, error)
}
