package textedit

import (
	"fmt"
	"strings"

	"z64hdrgen/pkg/contract"
)

// InsertLine 在第 index 个行片段之前插入 line+Newline（0 表示文首）。
//
// 片段在每个 '\n' 之后切分；文本以 '\n' 结尾时末尾存在一个空片段，
// 因此 index 取值范围为 [0, 片段数]。越界直接报错，不做钳制。
// 末片段无 '\n' 时 index == 片段数 会把 line 接在该片段之后（不补换行）。
func InsertLine(text string, index int, line string) (string, error) {
	segs := strings.SplitAfter(text, "\n")
	if index < 0 || index > len(segs) {
		return "", fmt.Errorf("%w: %d not in [0,%d]", contract.ErrIndexOutOfRange, index, len(segs))
	}
	var b strings.Builder
	b.Grow(len(text) + len(line) + len(Newline))
	for _, s := range segs[:index] {
		b.WriteString(s)
	}
	b.WriteString(line)
	b.WriteString(Newline)
	for _, s := range segs[index:] {
		b.WriteString(s)
	}
	return b.String(), nil
}
