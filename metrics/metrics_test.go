package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestNewCollector(t *testing.T) {
	c := NewCollector()
	if c == nil {
		t.Fatal("NewCollector 返回 nil")
	}
	if c.startTime.Load() == 0 {
		t.Error("startTime 未初始化")
	}
	if snap := c.GetSnapshot(); snap.SendsTotal != 0 || snap.ReceivesTotal != 0 {
		t.Errorf("新 Collector 计数应为 0: %+v", snap)
	}
}

func TestLifecycleStats(t *testing.T) {
	c := NewCollector()

	c.IncOpens()
	c.IncOpens()
	c.IncOpensFailed()
	c.IncCloses()

	snap := c.GetSnapshot()
	if snap.OpensTotal != 2 {
		t.Errorf("OpensTotal 期望 2，实际 %d", snap.OpensTotal)
	}
	if snap.OpensFailed != 1 {
		t.Errorf("OpensFailed 期望 1，实际 %d", snap.OpensFailed)
	}
	if snap.ClosesTotal != 1 {
		t.Errorf("ClosesTotal 期望 1，实际 %d", snap.ClosesTotal)
	}
}

func TestSendStats(t *testing.T) {
	c := NewCollector()

	c.RecordSend(100, 10*time.Millisecond)
	c.RecordSend(50, 30*time.Millisecond)
	c.IncSendsFailed()
	c.IncSendsFailed()

	snap := c.GetSnapshot()
	if snap.SendsTotal != 2 {
		t.Errorf("SendsTotal 期望 2，实际 %d", snap.SendsTotal)
	}
	if snap.BytesSent != 150 {
		t.Errorf("BytesSent 期望 150，实际 %d", snap.BytesSent)
	}
	if snap.AvgSendLatency != 20*time.Millisecond {
		t.Errorf("AvgSendLatency 期望 20ms，实际 %v", snap.AvgSendLatency)
	}
	if snap.SendFailRate != 0.5 {
		t.Errorf("SendFailRate 期望 0.5，实际 %f", snap.SendFailRate)
	}
}

func TestReceiveStats(t *testing.T) {
	c := NewCollector()

	c.IncConnsAccepted()
	c.IncConnsAccepted()
	c.RecordReceive(3)
	c.IncReceivesFailed()
	c.IncAcceptErrors()

	snap := c.GetSnapshot()
	if snap.ConnsAccepted != 2 || snap.ReceivesTotal != 1 || snap.ReceivesFailed != 1 {
		t.Errorf("接收统计不正确: %+v", snap)
	}
	if snap.BytesReceived != 3 {
		t.Errorf("BytesReceived 期望 3，实际 %d", snap.BytesReceived)
	}
	if snap.AcceptErrors != 1 {
		t.Errorf("AcceptErrors 期望 1，实际 %d", snap.AcceptErrors)
	}
}

func TestBroadcastStats(t *testing.T) {
	c := NewCollector()

	c.RecordBroadcast(3, 0)
	c.RecordBroadcast(4, 1)

	snap := c.GetSnapshot()
	if snap.BroadcastsTotal != 2 {
		t.Errorf("BroadcastsTotal 期望 2，实际 %d", snap.BroadcastsTotal)
	}
	if snap.BroadcastsFailed != 1 {
		t.Errorf("BroadcastsFailed 期望 1，实际 %d", snap.BroadcastsFailed)
	}
	if snap.BroadcastPeersTotal != 7 || snap.BroadcastPeerFailures != 1 {
		t.Errorf("广播节点统计不正确: %+v", snap)
	}
}

func TestNoDivisionByZero(t *testing.T) {
	snap := NewCollector().GetSnapshot()
	if snap.AvgSendLatency != 0 || snap.SendFailRate != 0 {
		t.Errorf("空 Collector 的比率应为 0: %+v", snap)
	}
}

func TestReset(t *testing.T) {
	c := NewCollector()
	c.IncOpens()
	c.RecordSend(10, time.Millisecond)
	c.RecordReceive(10)
	c.RecordBroadcast(2, 2)

	time.Sleep(5 * time.Millisecond)
	before := c.GetSnapshot().Uptime
	c.Reset()

	snap := c.GetSnapshot()
	if snap.OpensTotal != 0 || snap.SendsTotal != 0 || snap.BytesReceived != 0 || snap.BroadcastPeerFailures != 0 {
		t.Errorf("Reset 后计数应为 0: %+v", snap)
	}
	if snap.Uptime >= before {
		t.Errorf("Reset 应重置 Uptime: before=%v after=%v", before, snap.Uptime)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			c.RecordSend(1, time.Microsecond)
		}()
		go func() {
			defer wg.Done()
			c.RecordReceive(2)
		}()
		go func() {
			defer wg.Done()
			_ = c.GetSnapshot()
		}()
	}
	wg.Wait()

	snap := c.GetSnapshot()
	if snap.SendsTotal != 100 || snap.BytesReceived != 200 {
		t.Errorf("并发统计不正确: %+v", snap)
	}
}

func TestGlobal(t *testing.T) {
	if Global == nil {
		t.Fatal("Global 不应为 nil")
	}
}
