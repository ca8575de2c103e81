//go:build windows

package transport

import (
	"net"
	"syscall"

	"golang.org/x/sys/windows"
)

// soExclusiveAddrUse 是 Windows 的 SO_EXCLUSIVEADDRUSE (~SO_REUSEADDR)
const soExclusiveAddrUse = ^windows.SO_REUSEADDR

// ListenConfig 返回启用 SO_EXCLUSIVEADDRUSE 的 net.ListenConfig
// Windows 上 SO_REUSEADDR 允许其他进程抢占同一端口，这里显式独占，
// 保证端口被占用时 Open 返回 ErrBind
func ListenConfig() *net.ListenConfig {
	return &net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var opErr error
			err := c.Control(func(fd uintptr) {
				opErr = windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, soExclusiveAddrUse, 1)
			})
			if err != nil {
				return err
			}
			return opErr
		},
	}
}

// DialConfig 返回发送使用的 net.Dialer
func DialConfig() *net.Dialer {
	return &net.Dialer{}
}
