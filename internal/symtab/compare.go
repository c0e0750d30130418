package symtab

// DeltaKind: 两个变体之间单个符号的差异类型。
type DeltaKind int

const (
	Added DeltaKind = iota
	Removed
	Moved
)

func (k DeltaKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "moved"
	}
}

// Delta: 一条差异。From/To 在对应侧缺失时为 0。
type Delta struct {
	Kind DeltaKind
	Name string
	From uint32
	To   uint32
}

// Compare 以名称为键比较 a 与 b。
// 同名重复时以首次出现为准；输出先按 a 的顺序给出 removed/moved，再按 b 的顺序给出 added。
func Compare(a, b Table) []Delta {
	ia := firstIndex(a)
	ib := firstIndex(b)
	var out []Delta
	seen := make(map[string]bool, len(a.Symbols))
	for _, s := range a.Symbols {
		if seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		to, ok := ib[s.Name]
		switch {
		case !ok:
			out = append(out, Delta{Kind: Removed, Name: s.Name, From: s.Addr})
		case to != s.Addr:
			out = append(out, Delta{Kind: Moved, Name: s.Name, From: s.Addr, To: to})
		}
	}
	clear(seen)
	for _, s := range b.Symbols {
		if seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		if _, ok := ia[s.Name]; !ok {
			out = append(out, Delta{Kind: Added, Name: s.Name, To: s.Addr})
		}
	}
	return out
}

func firstIndex(t Table) map[string]uint32 {
	m := make(map[string]uint32, len(t.Symbols))
	for _, s := range t.Symbols {
		if _, ok := m[s.Name]; !ok {
			m[s.Name] = s.Addr
		}
	}
	return m
}
