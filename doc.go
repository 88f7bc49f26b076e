// Package zipc implements a zero-copy, single-producer/single-consumer
// shared-memory IPC channel: one process creates a named region, another
// attaches to it, and bytes move between them through a lock-free ring
// without ever being copied into a socket buffer or a kernel pipe.
//
// # Quick Start
//
//	sender, err := zipc.CreateSender("/orders", 64, 1024)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sender.Close()
//
//	receiver, err := zipc.CreateReceiver("/orders", 64, 1024)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer receiver.Close()
//
//	sender.Send([]byte("hello\x00"))
//	payload, n, _ := receiver.Receive()
//
// # Roles and Concurrency
//
// A Context is bound to exactly one role. At most one goroutine may call
// Send on a Sender Context at a time; at most one goroutine may call
// Receive/ReceiveBlocking on a Receiver Context at a time. The Sender
// goroutine and the Receiver goroutine may run concurrently without
// further coordination:
//
//	go func() { // producer
//	    for msg := range outbound {
//	        sender.Send(msg)
//	    }
//	}()
//
//	go func() { // consumer
//	    for {
//	        payload, n, err := receiver.ReceiveBlocking(100 * time.Millisecond)
//	        if err != nil {
//	            return
//	        }
//	        if n > 0 {
//	            process(payload[:n])
//	        }
//	    }
//	}()
//
// # Receiver-First Rendezvous
//
// A Receiver may start before any Sender has created the channel. Use
// WaitForInitialization instead of CreateReceiver to park until the
// region is published:
//
//	receiver, err := zipc.WaitForInitialization("/orders", 64, 1024)
//
// # Zero-Copy Receive
//
// Receive and ReceiveBlocking return a []byte aliasing the mapped region
// directly — no allocation, no copy. The returned slice is only valid
// until the next Receive call on the same Context; copy it if it needs to
// outlive that call.
//
// # Overflow Policy
//
// Send never blocks and never fails on a full queue: the message is
// silently dropped (drop-newest). Callers that need delivery confirmation
// should track their own sequence numbers in the payload.
//
// # In-Process Multiplexing
//
// The channel itself is strictly single-producer/single-consumer. The
// sibling package [github.com/karlbohlmark/zipc/multi] adds in-process
// fan-in (Funnel) and fan-out (Broadcast) in front of a single Context for
// callers that need many goroutines sharing one channel endpoint.
package zipc
