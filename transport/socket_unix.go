//go:build unix

package transport

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// ListenConfig 返回启用 SO_REUSEADDR 的 net.ListenConfig
// Close 之后立即在同一端口重新 Open 不会因 TIME_WAIT 失败
func ListenConfig() *net.ListenConfig {
	return &net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var opErr error
			err := c.Control(func(fd uintptr) {
				opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
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
