package transport

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/shinyes/netlayer/internal/addr"
	"github.com/shinyes/netlayer/log"
	"github.com/shinyes/netlayer/metrics"
)

// memoryInboxSize 每个内存监听者可排队的未读载荷数
const memoryInboxSize = 128

// memoryFirstPort 端口 0 时分配的第一个虚拟端口
const memoryFirstPort = 40000

var _ Transport = (*MemoryTransport)(nil)

// MemoryNetwork 是进程内的模拟网络，按监听地址字符串路由载荷。
// 地址按字面匹配："localhost:1" 与 "127.0.0.1:1" 是两个不同的地址
type MemoryNetwork struct {
	mu        sync.Mutex
	listeners map[string]*memoryListener
	nextPort  int
}

// memoryListener 对应 TCP 的监听 socket
type memoryListener struct {
	inbox   chan []byte
	closing chan struct{}
}

// NewMemoryNetwork 创建一个空的模拟网络
func NewMemoryNetwork() *MemoryNetwork {
	return &MemoryNetwork{
		listeners: make(map[string]*memoryListener),
		nextPort:  memoryFirstPort,
	}
}

// NewTransport 在该网络上创建一个 MemoryTransport
func (n *MemoryNetwork) NewTransport(listenAddr string, opts ...Option) (*MemoryTransport, error) {
	cfg, err := newConfig(listenAddr, opts)
	if err != nil {
		return nil, fmt.Errorf("invalid transport config: %w", err)
	}
	return &MemoryTransport{
		network: n,
		config:  cfg,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}, nil
}

// bind 注册监听地址，端口 0 时分配一个虚拟端口
func (n *MemoryNetwork) bind(host, port string) (string, *memoryListener, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if port == "0" {
		for {
			port = strconv.Itoa(n.nextPort)
			n.nextPort++
			if _, taken := n.listeners[addr.Join(host, port)]; !taken {
				break
			}
		}
	}
	key := addr.Join(host, port)
	if _, taken := n.listeners[key]; taken {
		return "", nil, fmt.Errorf("address %s already in use", key)
	}
	l := &memoryListener{
		inbox:   make(chan []byte, memoryInboxSize),
		closing: make(chan struct{}),
	}
	n.listeners[key] = l
	return key, l, nil
}

func (n *MemoryNetwork) unbind(key string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.listeners, key)
}

func (n *MemoryNetwork) lookup(key string) (*memoryListener, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	l, ok := n.listeners[key]
	return l, ok
}

// MemoryTransport 是 Transport 的进程内实现，语义与 TCPTransport 一致：
// 相同的生命周期错误，每次 Send 对应一次 Receive
type MemoryTransport struct {
	network *MemoryNetwork
	config  *Config
	logger  log.Logger
	metrics *metrics.Collector

	mu       sync.Mutex
	key      string
	listener *memoryListener // nil 表示未监听
}

func (t *MemoryTransport) Open(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.listener != nil {
		return ErrAlreadyOpen
	}
	host, port, err := addr.Parse(t.config.ListenAddr)
	if err != nil {
		t.metrics.IncOpensFailed()
		return fmt.Errorf("%w: %w", ErrBind, err)
	}
	key, l, err := t.network.bind(host, port)
	if err != nil {
		t.metrics.IncOpensFailed()
		return fmt.Errorf("%w: %w", ErrBind, err)
	}
	t.key = key
	t.listener = l

	t.metrics.IncOpens()
	t.logger.Info("listening on %s (memory)", key)
	return nil
}

func (t *MemoryTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.listener == nil {
		return ErrNotOpen
	}
	t.network.unbind(t.key)
	close(t.listener.closing)
	t.listener = nil
	t.key = ""

	t.metrics.IncCloses()
	t.logger.Info("listener closed")
	return nil
}

// IsOpen 报告是否正在监听
func (t *MemoryTransport) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.listener != nil
}

// Addr 返回注册的地址，未监听时返回空字符串
func (t *MemoryTransport) Addr() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.key
}

// Metrics 返回该传输使用的指标收集器
func (t *MemoryTransport) Metrics() *metrics.Collector {
	return t.metrics
}

func (t *MemoryTransport) Send(ctx context.Context, host, port string, payload []byte) error {
	if err := t.send(ctx, host, port, payload); err != nil {
		t.metrics.IncSendsFailed()
		return err
	}
	t.metrics.RecordSend(int64(len(payload)), 0)
	return nil
}

func (t *MemoryTransport) send(ctx context.Context, host, port string, payload []byte) error {
	if err := addr.Validate(host, port); err != nil {
		return fmt.Errorf("%w: %w", ErrAddress, err)
	}
	target := addr.Join(host, port)
	l, ok := t.network.lookup(target)
	if !ok {
		return fmt.Errorf("%w: dial %s: connection refused", ErrConnect, target)
	}

	// 复制一份，调用方返回后可以复用 payload
	data := make([]byte, len(payload))
	copy(data, payload)

	select {
	case l.inbox <- data:
		return nil
	case <-l.closing:
		return fmt.Errorf("%w: write to %s: listener closed", ErrIO, target)
	case <-ctx.Done():
		return fmt.Errorf("%w: write to %s: %w", ErrIO, target, ctx.Err())
	}
}

func (t *MemoryTransport) Receive(ctx context.Context) ([]byte, error) {
	t.mu.Lock()
	l := t.listener
	t.mu.Unlock()
	if l == nil {
		return nil, ErrNotOpen
	}

	select {
	case data := <-l.inbox:
		if limit := t.config.MaxPayloadSize; limit > 0 && int64(len(data)) > limit {
			t.metrics.IncReceivesFailed()
			return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrPayloadTooLarge, len(data), limit)
		}
		t.metrics.RecordReceive(int64(len(data)))
		return data, nil
	case <-l.closing:
		return nil, fmt.Errorf("%w: listener closed while waiting", ErrNotOpen)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *MemoryTransport) Broadcast(ctx context.Context, payload []byte, addrs []string) error {
	return broadcast(ctx, t.Send, payload, addrs, t.config.BroadcastConcurrency, t.logger, t.metrics)
}
