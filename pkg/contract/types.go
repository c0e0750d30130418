package contract

import "fmt"

// FileID: include 根内的相对文件标识（正斜杠，规范化后跨平台一致）。
type FileID string

// Symbol: 一条 地址↔名称 记录。
// 解析器不去重；顺序即源文本行序。
type Symbol struct {
	Name string
	Addr uint32
}

// String 以链接脚本形式输出（name = 0xADDR;）。
func (s Symbol) String() string {
	return fmt.Sprintf("%s = 0x%08X;", s.Name, s.Addr)
}

// SymbolParser: 将链接脚本/映射文件文本解析为有序符号列表。
// 纯函数语义：无 I/O、无共享状态，可并发调用。
type SymbolParser interface {
	Parse(text string) ([]Symbol, error)
}
