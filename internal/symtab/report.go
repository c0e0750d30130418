package symtab

import (
	"bufio"
	"fmt"
	"io"
)

// WriteReport 输出文本报告：各变体的符号数，以及首个变体与其余每个变体的差异。
//
//	# symbols
//	1.0	temp/z64hdr-main/oot_10_syms.ld	2
//	# 1.0 -> debug
//	moved	Actor_Spawn	0x80025110	0x80031F50
func WriteReport(w io.Writer, tables []Table) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# symbols")
	for _, t := range tables {
		fmt.Fprintf(bw, "%s\t%s\t%d\n", t.Name, t.Path, len(t.Symbols))
	}
	if len(tables) > 1 {
		base := tables[0]
		for _, other := range tables[1:] {
			fmt.Fprintf(bw, "# %s -> %s\n", base.Name, other.Name)
			for _, d := range Compare(base, other) {
				fmt.Fprintf(bw, "%s\t%s\t%s\t%s\n", d.Kind, d.Name, addr(d.From, d.Kind != Added), addr(d.To, d.Kind != Removed))
			}
		}
	}
	return bw.Flush()
}

func addr(a uint32, present bool) string {
	if !present {
		return "-"
	}
	return fmt.Sprintf("0x%08X", a)
}
