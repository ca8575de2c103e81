// Package pool 提供读路径使用的缓冲池，减少 GC 压力
package pool

import (
	"sync"
)

const (
	// CopyBufferSize 读取入站连接时单次拷贝使用的缓冲区大小 (32KB)
	CopyBufferSize = 32 * 1024
)

// copyBufferPool 用于 Receive 把连接数据拷贝进载荷
var copyBufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, CopyBufferSize)
		return &buf
	},
}

// GetCopyBuffer 从池中获取拷贝缓冲区，使用完毕后应调用 PutCopyBuffer 归还
func GetCopyBuffer() *[]byte {
	return copyBufferPool.Get().(*[]byte)
}

// PutCopyBuffer 归还拷贝缓冲区
// 容量不符的缓冲区直接丢弃
func PutCopyBuffer(buf *[]byte) {
	if buf == nil || cap(*buf) != CopyBufferSize {
		return
	}
	// 重置长度但保留容量
	*buf = (*buf)[:cap(*buf)]
	copyBufferPool.Put(buf)
}
