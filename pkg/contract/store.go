package contract

import (
	"context"
	"io"
)

// FileStore: include 根之上的读写抽象。
// 约束：
//  1. id 为相对路径，越界返回 ErrPathInvalid；
//  2. Read 对不存在的文件返回包装了 ErrTargetMissing 的错误；
//  3. Write 完整覆盖目标（不追加）；
//  4. 错误直接上抛（不做重试/回退）。
type FileStore interface {
	Read(ctx context.Context, id FileID) ([]byte, error)
	Write(ctx context.Context, id FileID, r io.Reader) error
	// Root 返回底层根目录（用于日志与暂存交换）。
	Root() string
}
