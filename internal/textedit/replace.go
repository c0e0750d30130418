package textedit

import (
	"regexp"
	"strings"
)

// ReplaceWholeWord 将 text 中所有整词出现的 needle 替换为 replacement。
// needle 按字面量处理（转义全部元字符），replacement 亦按字面量写入（不展开 $1）。
// 无匹配时原样返回。
func ReplaceWholeWord(text, needle, replacement string) string {
	if needle == "" {
		return text
	}
	re := compile(`(?m)\b` + regexp.QuoteMeta(needle) + `\b`)
	return re.ReplaceAllLiteralString(text, replacement)
}

// ReplaceFirst 仅替换首个字面量出现；search 不存在时原样返回。
// 若文本中存在多处相同内容，只有第一处被修改。
func ReplaceFirst(text, search, replacement string) string {
	if search == "" {
		return text
	}
	return strings.Replace(text, search, replacement, 1)
}
