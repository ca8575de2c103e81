package transport

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/shinyes/netlayer/internal/addr"
	"github.com/shinyes/netlayer/log"
	"github.com/shinyes/netlayer/metrics"
)

// sendFunc 是单点发送，TCP 与内存传输共用同一套扇出逻辑
type sendFunc func(ctx context.Context, host, port string, payload []byte) error

// broadcast 先解析全部地址，再并发执行 send。
// limit 为 0 时所有发送同时发起；任何失败都不会中止其他节点
func broadcast(ctx context.Context, send sendFunc, payload []byte, addrs []string,
	limit int, logger log.Logger, m *metrics.Collector) error {
	if len(addrs) == 0 {
		return nil
	}

	type target struct {
		host, port string
	}
	targets := make([]target, len(addrs))
	failures := make([]error, len(addrs))
	for i, token := range addrs {
		host, port, err := addr.Parse(token)
		if err != nil {
			failures[i] = fmt.Errorf("%w: %w", ErrAddress, err)
			continue
		}
		targets[i] = target{host: host, port: port}
	}

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, tg := range targets {
		if failures[i] != nil {
			continue
		}
		g.Go(func() error {
			failures[i] = send(ctx, tg.host, tg.port, payload)
			return nil
		})
	}
	_ = g.Wait()

	var failed []*PeerError
	for i, err := range failures {
		if err != nil {
			failed = append(failed, &PeerError{Addr: addrs[i], Err: err})
		}
	}
	m.RecordBroadcast(len(addrs), len(failed))
	if len(failed) == 0 {
		return nil
	}

	logger.Warn("broadcast to %d peers: %d failed", len(addrs), len(failed))
	return &BroadcastError{Total: len(addrs), Failed: failed}
}
