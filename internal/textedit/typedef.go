package textedit

import (
	"fmt"
	"regexp"
	"strings"

	"z64hdrgen/pkg/contract"
)

const typedefOpener = "typedef struct"

// ExtractTypedefSpan 返回 text 中 `typedef struct ... } name;` 块的原文。
//
// 先以非贪婪模式匹配到最近的 `} name;`，再将起点重新锚定到匹配内最后一个
// `typedef struct`，从而排除前面顺序出现的其他 typedef。基于正则而非括号配对：
// 同名块重复或嵌套的 typedef struct 可能定位不准（已知限制）。
func ExtractTypedefSpan(text, name string) (string, error) {
	re := compile(typedefOpener + `[\s\S]*?}\s*` + regexp.QuoteMeta(name) + `;`)
	m := re.FindString(text)
	if m == "" {
		return "", fmt.Errorf("%w: %s", contract.ErrScopeNotFound, name)
	}
	return m[strings.LastIndex(m, typedefOpener):], nil
}
