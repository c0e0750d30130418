//go:build windows

package textedit

// Newline 为 InsertLine 追加在新行之后的平台行终止符。
const Newline = "\r\n"
