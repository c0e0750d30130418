package linker

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"z64hdrgen/pkg/contract"
)

var (
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineComment  = regexp.MustCompile(`//[^\n]*`)
)

// Parser 以链接脚本格式（name = 0xADDR;）解析符号。
type Parser struct{}

var _ contract.SymbolParser = Parser{}

// New 创建链接脚本解析器（无配置项）。
func New() Parser { return Parser{} }

func (Parser) Parse(text string) ([]contract.Symbol, error) { return ParseLinkerScript(text) }

// ParseLinkerScript 提取 `name = 0xADDR;` 形式的符号，按行序返回，不去重。
//
// 先去除块注释与行注释；不含恰好一个 '=' 的行视为非符号内容跳过。
// 地址无法按 32 位十六进制解析时整体失败（上游格式不兼容），不回退为 0。
func ParseLinkerScript(text string) ([]contract.Symbol, error) {
	text = blockComment.ReplaceAllString(text, "")
	text = lineComment.ReplaceAllString(text, "")

	var out []contract.Symbol
	for i, ln := range strings.Split(text, "\n") {
		if ln == "" {
			continue
		}
		parts := strings.Split(ln, "=")
		if len(parts) != 2 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		raw := strings.ReplaceAll(parts[1], "0x", "")
		raw = strings.TrimSpace(strings.ReplaceAll(raw, ";", ""))
		addr, err := strconv.ParseUint(raw, 16, 32)
		if err != nil {
			// 行号基于去注释后的文本；块注释跨行时会与原文件有偏差
			return nil, fmt.Errorf("%w: line %d: %q", contract.ErrMalformedSymbolLine, i+1, strings.TrimSpace(ln))
		}
		out = append(out, contract.Symbol{Name: name, Addr: uint32(addr)})
	}
	return out, nil
}
