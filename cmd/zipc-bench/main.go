// Command zipc-bench measures channel throughput using a pool of
// in-process worker goroutines that share a single ZIPC endpoint through
// an MPMC staging queue, exercising the same fan-in/fan-out pattern the
// multi package wraps for production use.
package main

import (
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"

	"github.com/karlbohlmark/zipc"
	"github.com/karlbohlmark/zipc/multi"
)

func main() {
	name := flag.String("name", "/zipc-bench", "channel name")
	queueSize := flag.Uint("queue-size", 1024, "queue size, power of two")
	messageSize := flag.Uint("message-size", 64, "message size in bytes")
	messages := flag.Uint("messages", 1_000_000, "total messages to send")
	workers := flag.Uint("workers", 4, "producer worker goroutines feeding the sender")
	duration := flag.Duration("duration", 10*time.Second, "maximum benchmark duration")
	flag.Parse()

	if err := zipc.Unlink(*name); err != nil {
		log.Fatalf("zipc-bench: unlink stale channel: %v", err)
	}

	sender, err := zipc.CreateSender(*name, uint32(*queueSize), uint32(*messageSize))
	if err != nil {
		log.Fatalf("zipc-bench: create sender: %v", err)
	}
	defer sender.Close()

	receiver, err := zipc.CreateReceiver(*name, uint32(*queueSize), uint32(*messageSize))
	if err != nil {
		log.Fatalf("zipc-bench: create receiver: %v", err)
	}
	defer receiver.Close()

	staging := multi.NewPool(int(*queueSize) * 2)

	var sent, received uint64
	deadline := time.Now().Add(*duration)

	var wg sync.WaitGroup
	perWorker := uint64(*messages) / uint64(*workers)
	for w := uint64(0); w < uint64(*workers); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			payload := make([]byte, *messageSize)
			for i := uint64(0); i < perWorker; i++ {
				if time.Now().After(deadline) {
					return
				}
				if staging.Enqueue(payload) == nil {
					atomic.AddUint64(&sent, 1)
				}
			}
		}()
	}

	forwarderDone := make(chan struct{})
	go func() {
		defer close(forwarderDone)
		for time.Now().Before(deadline) {
			payload, err := staging.Dequeue()
			if iox.IsWouldBlock(err) {
				sw := spin.Wait{}
				sw.Once()
				continue
			}
			_ = sender.Send(payload)
		}
	}()

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		for time.Now().Before(deadline) {
			_, n, err := receiver.ReceiveBlocking(50 * time.Millisecond)
			if err != nil {
				continue
			}
			if n > 0 {
				atomic.AddUint64(&received, 1)
			}
		}
	}()

	wg.Wait()
	<-forwarderDone
	<-consumerDone

	fmt.Printf("sent=%d received=%d queue_size=%d message_size=%d workers=%d\n",
		atomic.LoadUint64(&sent), atomic.LoadUint64(&received), *queueSize, *messageSize, *workers)
}
