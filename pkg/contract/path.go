package contract

import (
	"path"
	"strings"
)

// NormalizeFileID 规范化路径，统一为跨平台稳定的 FileID。
// 规则：
// - 使用正斜杠分隔符
// - 清理多余分隔符与路径片段（.、..）
// - 保留相对/绝对语义，不做隐式绝对化
func NormalizeFileID(p string) FileID {
	return FileID(path.Clean(strings.ReplaceAll(p, "\\", "/")))
}

// RelPath 校验 id 为 include 根内的相对路径并返回规范化结果（正斜杠）。
// 拒绝空路径、绝对路径、'..' 逃逸与 Windows 卷名。
func RelPath(id FileID) (string, error) {
	rel := string(NormalizeFileID(string(id)))
	switch {
	case rel == "." || rel == "":
		return "", ErrPathInvalid
	case strings.HasPrefix(rel, "/"):
		return "", ErrPathInvalid
	case rel == ".." || strings.HasPrefix(rel, "../"):
		return "", ErrPathInvalid
	case len(rel) >= 2 && rel[1] == ':':
		return "", ErrPathInvalid
	}
	return rel, nil
}
