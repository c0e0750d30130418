package patch

import (
	"fmt"

	"z64hdrgen/internal/textedit"
	"z64hdrgen/pkg/contract"
)

// Apply 将单条规则应用于文件文本并返回新文本（纯函数，无 I/O）。
//
//   - TypedefInsert：定位 typedef 块 → 块内插行 → 以新块替换原文中首个相同块
//   - FileInsert：整文件插行
//   - TextReplace：替换首个字面量出现
//   - ExprReplace：整词替换全部出现
func Apply(r contract.Rule, text string) (string, error) {
	switch r := r.(type) {
	case contract.TypedefInsert:
		span, err := textedit.ExtractTypedefSpan(text, r.Typedef)
		if err != nil {
			return "", err
		}
		patched, err := textedit.InsertLine(span, r.Line, r.Text)
		if err != nil {
			return "", fmt.Errorf("typedef %s: %w", r.Typedef, err)
		}
		return textedit.ReplaceFirst(text, span, patched), nil
	case contract.FileInsert:
		return textedit.InsertLine(text, r.Line, r.Text)
	case contract.TextReplace:
		return textedit.ReplaceFirst(text, r.Search, r.New), nil
	case contract.ExprReplace:
		return textedit.ReplaceWholeWord(text, r.Search, r.New), nil
	default:
		return "", fmt.Errorf("%w: %T", contract.ErrUnknownRule, r)
	}
}
