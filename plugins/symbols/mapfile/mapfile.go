package mapfile

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"z64hdrgen/pkg/contract"
)

const (
	// addrWidth: "0x" + 16 位十六进制（64 位宿主上 GNU ld 的固定宽度地址列）。
	addrWidth = 18
	// minAddr: 运行期映射区起点；低于此地址的条目不是本工具关心的符号。
	minAddr = 0x80000000
)

// Parser 以映射文件格式（地址列 + 名称）解析符号。
type Parser struct{}

var _ contract.SymbolParser = Parser{}

// New 创建映射文件解析器（无配置项）。
func New() Parser { return Parser{} }

func (Parser) Parse(text string) ([]contract.Symbol, error) { return ParseMapFile(text) }

// ParseMapFile 逐行解析映射文件：去除全部空白后以 "0x" 开头的行才参与解析。
// 地址取固定宽度列；低于 0x80000000 的丢弃；名称中 '=' 之后的注解被截断。
func ParseMapFile(text string) ([]contract.Symbol, error) {
	var out []contract.Symbol
	for i, ln := range strings.Split(text, "\n") {
		s := stripSpace(ln)
		if !strings.HasPrefix(s, "0x") {
			continue
		}
		if len(s) < addrWidth {
			return nil, fmt.Errorf("%w: line %d: short address field %q", contract.ErrMalformedSymbolLine, i+1, s)
		}
		addr, err := strconv.ParseUint(s[2:addrWidth], 16, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %q", contract.ErrMalformedSymbolLine, i+1, s[:addrWidth])
		}
		if addr < minAddr {
			continue
		}
		name := s[addrWidth:]
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			name = name[:eq]
		}
		out = append(out, contract.Symbol{Name: name, Addr: uint32(addr)})
	}
	return out, nil
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
