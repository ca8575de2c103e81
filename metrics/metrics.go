package metrics

import (
	"sync/atomic"
	"time"
)

// Collector counts transport activity. All methods are safe for
// concurrent use; a nil *Collector is not.
type Collector struct {
	// Lifecycle stats.
	opensTotal  int64
	opensFailed int64
	closesTotal int64

	// Send path.
	sendsTotal    int64
	sendsFailed   int64
	bytesSent     int64
	sendLatencyNs int64

	// Receive path.
	receivesTotal  int64
	receivesFailed int64
	bytesReceived  int64
	connsAccepted  int64
	acceptErrors   int64

	// Fan-out.
	broadcastsTotal       int64
	broadcastsFailed      int64
	broadcastPeersTotal   int64
	broadcastPeerFailures int64

	startTime atomic.Int64
}

// NewCollector creates a new Collector.
func NewCollector() *Collector {
	c := &Collector{}
	c.startTime.Store(time.Now().UnixNano())
	return c
}

func (c *Collector) IncOpens() {
	atomic.AddInt64(&c.opensTotal, 1)
}

func (c *Collector) IncOpensFailed() {
	atomic.AddInt64(&c.opensFailed, 1)
}

func (c *Collector) IncCloses() {
	atomic.AddInt64(&c.closesTotal, 1)
}

// RecordSend records one completed send of n bytes that took d.
func (c *Collector) RecordSend(n int64, d time.Duration) {
	atomic.AddInt64(&c.sendsTotal, 1)
	atomic.AddInt64(&c.bytesSent, n)
	atomic.AddInt64(&c.sendLatencyNs, int64(d))
}

func (c *Collector) IncSendsFailed() {
	atomic.AddInt64(&c.sendsFailed, 1)
}

// RecordReceive records one drained inbound payload of n bytes.
func (c *Collector) RecordReceive(n int64) {
	atomic.AddInt64(&c.receivesTotal, 1)
	atomic.AddInt64(&c.bytesReceived, n)
}

func (c *Collector) IncReceivesFailed() {
	atomic.AddInt64(&c.receivesFailed, 1)
}

func (c *Collector) IncConnsAccepted() {
	atomic.AddInt64(&c.connsAccepted, 1)
}

func (c *Collector) IncAcceptErrors() {
	atomic.AddInt64(&c.acceptErrors, 1)
}

// RecordBroadcast records one fan-out to peers addresses of which failed
// did not get the payload.
func (c *Collector) RecordBroadcast(peers, failed int) {
	atomic.AddInt64(&c.broadcastsTotal, 1)
	atomic.AddInt64(&c.broadcastPeersTotal, int64(peers))
	if failed > 0 {
		atomic.AddInt64(&c.broadcastsFailed, 1)
		atomic.AddInt64(&c.broadcastPeerFailures, int64(failed))
	}
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Uptime time.Duration

	OpensTotal  int64
	OpensFailed int64
	ClosesTotal int64

	SendsTotal     int64
	SendsFailed    int64
	BytesSent      int64
	AvgSendLatency time.Duration
	SendFailRate   float64

	ReceivesTotal  int64
	ReceivesFailed int64
	BytesReceived  int64
	ConnsAccepted  int64
	AcceptErrors   int64

	BroadcastsTotal       int64
	BroadcastsFailed      int64
	BroadcastPeersTotal   int64
	BroadcastPeerFailures int64
}

func (c *Collector) GetSnapshot() Snapshot {
	s := Snapshot{
		Uptime: time.Since(time.Unix(0, c.startTime.Load())),

		OpensTotal:  atomic.LoadInt64(&c.opensTotal),
		OpensFailed: atomic.LoadInt64(&c.opensFailed),
		ClosesTotal: atomic.LoadInt64(&c.closesTotal),

		SendsTotal:  atomic.LoadInt64(&c.sendsTotal),
		SendsFailed: atomic.LoadInt64(&c.sendsFailed),
		BytesSent:   atomic.LoadInt64(&c.bytesSent),

		ReceivesTotal:  atomic.LoadInt64(&c.receivesTotal),
		ReceivesFailed: atomic.LoadInt64(&c.receivesFailed),
		BytesReceived:  atomic.LoadInt64(&c.bytesReceived),
		ConnsAccepted:  atomic.LoadInt64(&c.connsAccepted),
		AcceptErrors:   atomic.LoadInt64(&c.acceptErrors),

		BroadcastsTotal:       atomic.LoadInt64(&c.broadcastsTotal),
		BroadcastsFailed:      atomic.LoadInt64(&c.broadcastsFailed),
		BroadcastPeersTotal:   atomic.LoadInt64(&c.broadcastPeersTotal),
		BroadcastPeerFailures: atomic.LoadInt64(&c.broadcastPeerFailures),
	}

	if s.SendsTotal > 0 {
		s.AvgSendLatency = time.Duration(atomic.LoadInt64(&c.sendLatencyNs) / s.SendsTotal)
	}
	if attempts := s.SendsTotal + s.SendsFailed; attempts > 0 {
		s.SendFailRate = float64(s.SendsFailed) / float64(attempts)
	}
	return s
}

func (c *Collector) Reset() {
	atomic.StoreInt64(&c.opensTotal, 0)
	atomic.StoreInt64(&c.opensFailed, 0)
	atomic.StoreInt64(&c.closesTotal, 0)

	atomic.StoreInt64(&c.sendsTotal, 0)
	atomic.StoreInt64(&c.sendsFailed, 0)
	atomic.StoreInt64(&c.bytesSent, 0)
	atomic.StoreInt64(&c.sendLatencyNs, 0)

	atomic.StoreInt64(&c.receivesTotal, 0)
	atomic.StoreInt64(&c.receivesFailed, 0)
	atomic.StoreInt64(&c.bytesReceived, 0)
	atomic.StoreInt64(&c.connsAccepted, 0)
	atomic.StoreInt64(&c.acceptErrors, 0)

	atomic.StoreInt64(&c.broadcastsTotal, 0)
	atomic.StoreInt64(&c.broadcastsFailed, 0)
	atomic.StoreInt64(&c.broadcastPeersTotal, 0)
	atomic.StoreInt64(&c.broadcastPeerFailures, 0)

	c.startTime.Store(time.Now().UnixNano())
}

// Global is the process-level collector, used by the CLI.
var Global = NewCollector()
