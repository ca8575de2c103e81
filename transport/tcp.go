package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/shinyes/netlayer/internal/addr"
	"github.com/shinyes/netlayer/internal/pool"
	"github.com/shinyes/netlayer/log"
	"github.com/shinyes/netlayer/metrics"
)

const (
	acceptErrorBackoff   = 50 * time.Millisecond
	acceptErrorLogPeriod = time.Second
)

// aLongTimeAgo 用于立即打断阻塞中的读写
var aLongTimeAgo = time.Unix(1, 0)

var _ Transport = (*TCPTransport)(nil)

// TCPTransport 基于原始 TCP 连接实现 Transport
type TCPTransport struct {
	config  *Config
	logger  log.Logger
	metrics *metrics.Collector

	mu      sync.Mutex
	session *listenSession // nil 表示未监听
}

// listenSession 是一次 Open 到 Close 之间的监听状态
type listenSession struct {
	ln      net.Listener
	conns   chan net.Conn // acceptLoop 把入站连接逐个交给 Receive
	closing chan struct{}
	done    chan struct{} // acceptLoop 退出后关闭
}

// NewTCP 创建一个将在 listenAddr 上监听的 TCPTransport。
// 地址在 Open 时才解析和绑定。
func NewTCP(listenAddr string, opts ...Option) (*TCPTransport, error) {
	cfg, err := newConfig(listenAddr, opts)
	if err != nil {
		return nil, fmt.Errorf("invalid transport config: %w", err)
	}
	return &TCPTransport{
		config:  cfg,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}, nil
}

// Open 绑定并开始监听
func (t *TCPTransport) Open(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session != nil {
		return ErrAlreadyOpen
	}

	host, port, err := addr.Parse(t.config.ListenAddr)
	if err != nil {
		t.metrics.IncOpensFailed()
		return fmt.Errorf("%w: %w", ErrBind, err)
	}
	ln, err := ListenConfig().Listen(ctx, "tcp", addr.Join(host, port))
	if err != nil {
		t.metrics.IncOpensFailed()
		return fmt.Errorf("%w: %w", ErrBind, err)
	}

	s := &listenSession{
		ln:      ln,
		conns:   make(chan net.Conn),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	t.session = s
	go t.acceptLoop(s)

	t.metrics.IncOpens()
	t.logger.Info("listening on %s", ln.Addr())
	return nil
}

// Close 停止监听。等待中的 Receive 会返回 ErrNotOpen
func (t *TCPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.session
	if s == nil {
		return ErrNotOpen
	}
	t.session = nil

	close(s.closing)
	err := s.ln.Close()
	<-s.done

	t.metrics.IncCloses()
	t.logger.Info("listener closed")

	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("%w: close listener: %w", ErrIO, err)
	}
	return nil
}

// IsOpen 报告是否正在监听
func (t *TCPTransport) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session != nil
}

// Addr 返回实际绑定的地址，未监听时返回空字符串
func (t *TCPTransport) Addr() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return ""
	}
	return t.session.ln.Addr().String()
}

// Metrics 返回该传输使用的指标收集器
func (t *TCPTransport) Metrics() *metrics.Collector {
	return t.metrics
}

// acceptLoop 接受入站连接直到会话关闭
func (t *TCPTransport) acceptLoop(s *listenSession) {
	defer close(s.done)

	var lastAcceptErrLog time.Time
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.closing:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			t.metrics.IncAcceptErrors()
			if time.Since(lastAcceptErrLog) >= acceptErrorLogPeriod {
				t.logger.Warn("accept tcp failed: %v", err)
				lastAcceptErrLog = time.Now()
			}
			select {
			case <-time.After(acceptErrorBackoff):
			case <-s.closing:
				return
			}
			continue
		}

		t.metrics.IncConnsAccepted()
		select {
		case s.conns <- conn:
		case <-s.closing:
			_ = conn.Close()
			return
		}
	}
}

// Receive 取一个入站连接并读到 EOF。
// 等待连接期间不持有锁，Close 可以随时进行
func (t *TCPTransport) Receive(ctx context.Context) ([]byte, error) {
	t.mu.Lock()
	s := t.session
	t.mu.Unlock()
	if s == nil {
		return nil, ErrNotOpen
	}

	var conn net.Conn
	select {
	case conn = <-s.conns:
	case <-s.closing:
		return nil, fmt.Errorf("%w: listener closed while waiting", ErrNotOpen)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer conn.Close()

	payload, err := t.readPayload(ctx, conn)
	if err != nil {
		t.metrics.IncReceivesFailed()
		t.logger.Debug("receive from %s failed: %v", conn.RemoteAddr(), err)
		return nil, err
	}
	t.metrics.RecordReceive(int64(len(payload)))
	return payload, nil
}

// readPayload 读取连接直到对端半关闭
func (t *TCPTransport) readPayload(ctx context.Context, conn net.Conn) ([]byte, error) {
	if t.config.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(t.config.ReadTimeout)); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIO, err)
		}
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(aLongTimeAgo)
	})
	defer stop()

	buf := pool.GetCopyBuffer()
	defer pool.PutCopyBuffer(buf)

	limit := t.config.MaxPayloadSize
	var payload bytes.Buffer
	for {
		n, err := conn.Read(*buf)
		payload.Write((*buf)[:n])
		if limit > 0 && int64(payload.Len()) > limit {
			return nil, fmt.Errorf("%w: more than %d bytes from %s", ErrPayloadTooLarge, limit, conn.RemoteAddr())
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: read from %s: %w", ErrIO, conn.RemoteAddr(), err)
		}
	}

	if payload.Len() == 0 {
		return []byte{}, nil
	}
	return payload.Bytes(), nil
}

// Send 拨号 host:port，写出完整载荷后半关闭并断开
func (t *TCPTransport) Send(ctx context.Context, host, port string, payload []byte) error {
	start := time.Now()
	if err := t.send(ctx, host, port, payload); err != nil {
		t.metrics.IncSendsFailed()
		t.logger.Debug("send to %s failed: %v", addr.Join(host, port), err)
		return err
	}
	t.metrics.RecordSend(int64(len(payload)), time.Since(start))
	return nil
}

func (t *TCPTransport) send(ctx context.Context, host, port string, payload []byte) error {
	if err := addr.Validate(host, port); err != nil {
		return fmt.Errorf("%w: %w", ErrAddress, err)
	}
	target := addr.Join(host, port)

	dialer := DialConfig()
	dialer.Timeout = t.config.DialTimeout
	conn, err := dialer.DialContext(ctx, "tcp", target)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %w", ErrConnect, target, err)
	}
	defer conn.Close()

	if t.config.WriteTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(t.config.WriteTimeout)); err != nil {
			return fmt.Errorf("%w: %w", ErrIO, err)
		}
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetWriteDeadline(aLongTimeAgo)
	})
	defer stop()

	if _, err := conn.Write(payload); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return fmt.Errorf("%w: write to %s: %w", ErrIO, target, err)
	}

	// 半关闭写方向，对端的读取随即以 EOF 结束
	if hc, ok := conn.(interface{ CloseWrite() error }); ok {
		if err := hc.CloseWrite(); err != nil {
			return fmt.Errorf("%w: close write to %s: %w", ErrIO, target, err)
		}
	}
	return nil
}

// Broadcast 并发地向所有地址发送同一载荷。
// 每个节点都会尝试，失败汇总在 *BroadcastError 中
func (t *TCPTransport) Broadcast(ctx context.Context, payload []byte, addrs []string) error {
	return broadcast(ctx, t.Send, payload, addrs, t.config.BroadcastConcurrency, t.logger, t.metrics)
}
