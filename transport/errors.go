package transport

import (
	"errors"
	"fmt"
	"strings"
)

// 错误类型。具体错误通过 %w 同时包装类型与底层原因，
// 调用方用 errors.Is 判断。
var (
	ErrAlreadyOpen     = errors.New("listener is already open")
	ErrNotOpen         = errors.New("listener is not open")
	ErrAddress         = errors.New("invalid peer address")
	ErrBind            = errors.New("bind failed")
	ErrConnect         = errors.New("connect failed")
	ErrIO              = errors.New("i/o error")
	ErrPayloadTooLarge = errors.New("payload too large")
)

// PeerError 记录广播中单个节点的失败
type PeerError struct {
	Addr string
	Err  error
}

func (e *PeerError) Error() string {
	return fmt.Sprintf("%s: %v", e.Addr, e.Err)
}

func (e *PeerError) Unwrap() error {
	return e.Err
}

// BroadcastError 汇总一次广播中所有失败的节点。
// Failed 按传入地址的顺序排列。
type BroadcastError struct {
	Total  int
	Failed []*PeerError
}

func (e *BroadcastError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "broadcast: %d of %d peers failed", len(e.Failed), e.Total)
	for i, pe := range e.Failed {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(pe.Error())
	}
	return b.String()
}

// Unwrap 让 errors.Is / errors.As 能看到每个节点的错误
func (e *BroadcastError) Unwrap() []error {
	errs := make([]error, len(e.Failed))
	for i, pe := range e.Failed {
		errs[i] = pe
	}
	return errs
}

// Peers 返回失败节点的地址
func (e *BroadcastError) Peers() []string {
	addrs := make([]string, len(e.Failed))
	for i, pe := range e.Failed {
		addrs[i] = pe.Addr
	}
	return addrs
}
