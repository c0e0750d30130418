package textedit

import (
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
)

// 编译后的模式按源串缓存：同一规则集常对同一 typedef/标识符反复操作。
const patternCacheSize = 256

var patterns *lru.Cache[string, *regexp.Regexp]

func init() {
	c, err := lru.New[string, *regexp.Regexp](patternCacheSize)
	if err != nil {
		panic(err)
	}
	patterns = c
}

// compile 返回缓存的 *regexp.Regexp；模式均由 QuoteMeta 拼接，编译失败视为程序错误。
func compile(expr string) *regexp.Regexp {
	if re, ok := patterns.Get(expr); ok {
		return re
	}
	re := regexp.MustCompile(expr)
	patterns.Add(expr, re)
	return re
}
