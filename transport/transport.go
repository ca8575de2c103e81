// Package transport 是节点间通信栈的最底层：监听、单点发送、
// 接收单个入站载荷以及向多个节点并发广播。
//
// 线上格式没有任何帧：一个连接只承载一个载荷，发送方写完后半关闭，
// 接收方读到 EOF 即为消息结束。
package transport

import (
	"context"
)

// Transport 是所有具体传输实现必须满足的能力集合。
// 所有方法都可能阻塞在 I/O 上，并且可以被并发调用。
type Transport interface {
	// Open 在配置的地址上绑定并开始监听。
	// 已在监听时返回 ErrAlreadyOpen，地址无效或不可用时返回 ErrBind。
	Open(ctx context.Context) error

	// Close 停止监听。未在监听时返回 ErrNotOpen。
	Close() error

	// Send 通过一个新连接把完整的 payload 发送给 host:port。
	// 不要求本地已 Open。
	Send(ctx context.Context, host, port string, payload []byte) error

	// Receive 取一个入站连接并读到 EOF，返回累积的字节。
	// 未在监听时返回 ErrNotOpen。
	Receive(ctx context.Context) ([]byte, error)

	// Broadcast 解析每个 host:port 地址并发地执行 Send。
	// 任何节点失败时返回 *BroadcastError。
	Broadcast(ctx context.Context, payload []byte, addrs []string) error
}
