package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shinyes/netlayer/internal/addr"
	"github.com/shinyes/netlayer/transport"
)

func main() {
	var (
		total       = flag.Int("total", 1200, "total payloads to send")
		concurrency = flag.Int("concurrency", 200, "concurrent send workers")
		size        = flag.Int("size", 1024, "payload size in bytes")
		dialTimeout = flag.Duration("dial-timeout", 1500*time.Millisecond, "per-connection dial timeout")
	)
	flag.Parse()

	rx, err := transport.NewTCP("127.0.0.1:0", transport.WithDialTimeout(*dialTimeout))
	if err != nil {
		panic(fmt.Errorf("new transport failed: %w", err))
	}
	if err := rx.Open(context.Background()); err != nil {
		panic(fmt.Errorf("open failed: %w", err))
	}

	target := rx.Addr()
	host, port, err := addr.Parse(target)
	if err != nil {
		panic(err)
	}
	fmt.Printf("stress target: %s\n", target)
	fmt.Printf("total=%d concurrency=%d size=%d dial-timeout=%s\n", *total, *concurrency, *size, dialTimeout.String())

	var (
		start      = time.Now()
		sent       atomic.Int64
		sendFailed atomic.Int64
		received   atomic.Int64
		corrupt    atomic.Int64
	)

	// 接收端：一直取到监听关闭
	recvDone := make(chan struct{})
	go func() {
		defer close(recvDone)
		for {
			payload, err := rx.Receive(context.Background())
			if errors.Is(err, transport.ErrNotOpen) {
				return
			}
			if err != nil {
				continue
			}
			received.Add(1)
			if len(payload) != *size {
				corrupt.Add(1)
			}
		}
	}()

	jobs := make(chan struct{}, *total)
	var wg sync.WaitGroup

	workerN := *concurrency
	if workerN < 1 {
		workerN = 1
	}
	if workerN > *total {
		workerN = *total
	}

	payload := make([]byte, *size)
	for i := range payload {
		payload[i] = byte(i)
	}

	for i := 0; i < workerN; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, err := transport.NewTCP("127.0.0.1:0", transport.WithDialTimeout(*dialTimeout))
			if err != nil {
				panic(err)
			}
			for range jobs {
				if err := tx.Send(context.Background(), host, port, payload); err != nil {
					sendFailed.Add(1)
					continue
				}
				sent.Add(1)
			}
		}()
	}

	for i := 0; i < *total; i++ {
		jobs <- struct{}{}
	}
	close(jobs)
	wg.Wait()

	// 等接收端消化完已送达的连接
	deadline := time.Now().Add(5 * time.Second)
	for received.Load() < sent.Load() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	_ = rx.Close()
	<-recvDone

	elapsed := time.Since(start)
	snap := rx.Metrics().GetSnapshot()
	fmt.Printf("elapsed=%s\n", elapsed)
	fmt.Printf("sent=%d send-failed=%d received=%d corrupt=%d\n",
		sent.Load(), sendFailed.Load(), received.Load(), corrupt.Load())
	fmt.Printf("accepted=%d accept-errors=%d bytes=%d\n",
		snap.ConnsAccepted, snap.AcceptErrors, snap.BytesReceived)
	fmt.Println("done")
}
