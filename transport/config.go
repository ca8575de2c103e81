package transport

import (
	"errors"
	"time"

	"github.com/shinyes/netlayer/log"
	"github.com/shinyes/netlayer/metrics"
)

// Config 传输层配置
type Config struct {
	// 监听地址（host:port），端口 0 表示自动分配。在 Open 时解析
	ListenAddr string

	// 连接超时，0 表示不限制
	DialTimeout time.Duration

	// 读取单个入站载荷的超时（从取到连接开始计时），0 表示不限制
	ReadTimeout time.Duration

	// 写出单个载荷的超时，0 表示不限制
	WriteTimeout time.Duration

	// 单个入站载荷的最大字节数，0 表示不限制
	MaxPayloadSize int64

	// 广播时同时进行的发送数上限，0 表示全部同时发起
	BroadcastConcurrency int

	// 日志记录器，默认静默（NopLogger）
	Logger log.Logger

	// 指标收集器，nil 时每个传输实例各自创建
	Metrics *metrics.Collector
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:           "127.0.0.1:0",
		DialTimeout:          10 * time.Second,
		ReadTimeout:          45 * time.Second,
		WriteTimeout:         10 * time.Second,
		MaxPayloadSize:       0,
		BroadcastConcurrency: 0,
		Logger:               log.Nop(),
	}
}

// Validate 验证配置参数的有效性，并补齐缺省的 Logger / Metrics
func (c *Config) Validate() error {
	var errs []error

	if c.ListenAddr == "" {
		errs = append(errs, errors.New("ListenAddr must not be empty"))
	}

	// 检查超时配置
	if c.DialTimeout < 0 {
		errs = append(errs, errors.New("DialTimeout must not be negative"))
	}
	if c.ReadTimeout < 0 {
		errs = append(errs, errors.New("ReadTimeout must not be negative"))
	}
	if c.WriteTimeout < 0 {
		errs = append(errs, errors.New("WriteTimeout must not be negative"))
	}

	if c.MaxPayloadSize < 0 {
		errs = append(errs, errors.New("MaxPayloadSize must not be negative"))
	}
	if c.BroadcastConcurrency < 0 {
		errs = append(errs, errors.New("BroadcastConcurrency must not be negative"))
	}

	if c.Logger == nil {
		c.Logger = log.Nop()
	}
	if c.Metrics == nil {
		c.Metrics = metrics.NewCollector()
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Option 配置选项函数
type Option func(*Config)

// WithDialTimeout 设置连接超时
func WithDialTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.DialTimeout = timeout
	}
}

// WithReadTimeout 设置读取超时
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.ReadTimeout = timeout
	}
}

// WithWriteTimeout 设置写出超时
func WithWriteTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.WriteTimeout = timeout
	}
}

// WithMaxPayloadSize 设置入站载荷上限
func WithMaxPayloadSize(n int64) Option {
	return func(c *Config) {
		c.MaxPayloadSize = n
	}
}

// WithBroadcastConcurrency 设置广播并发上限
func WithBroadcastConcurrency(n int) Option {
	return func(c *Config) {
		c.BroadcastConcurrency = n
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger log.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithMetrics 设置指标收集器
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// newConfig 组装配置：默认值 + 监听地址 + 选项
func newConfig(listenAddr string, opts []Option) (*Config, error) {
	cfg := DefaultConfig()
	cfg.ListenAddr = listenAddr
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
