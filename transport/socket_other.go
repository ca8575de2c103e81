//go:build !unix && !windows

package transport

import "net"

// ListenConfig returns a plain net.ListenConfig on platforms without socket options.
func ListenConfig() *net.ListenConfig {
	return &net.ListenConfig{}
}

// DialConfig returns a plain net.Dialer.
func DialConfig() *net.Dialer {
	return &net.Dialer{}
}
