// Command zipc-recv attaches to a channel and prints each message it
// receives until interrupted.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/karlbohlmark/zipc"
)

func main() {
	name := flag.String("name", "/zipc-demo", "channel name")
	queueSize := flag.Uint("queue-size", 64, "queue size, power of two")
	messageSize := flag.Uint("message-size", 1024, "maximum message size in bytes")
	wait := flag.Bool("wait", false, "block until a sender creates the channel")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	endpoint, err := attach(*name, uint32(*queueSize), uint32(*messageSize), *wait)
	if err != nil {
		log.Fatalf("zipc-recv: %v", err)
	}
	defer endpoint.Close()

	log.Printf("zipc-recv: endpoint %s bound to %s", endpoint.ID(), *name)

	for {
		select {
		case <-ctx.Done():
			log.Println("zipc-recv: stopping")
			return
		default:
		}

		payload, n, err := endpoint.ReceiveBlocking(200 * time.Millisecond)
		if err != nil {
			log.Fatalf("zipc-recv: receive: %v", err)
		}
		if n == 0 {
			continue
		}
		os.Stdout.Write(payload[:n])
	}
}

func attach(name string, queueSize, messageSize uint32, wait bool) (*zipc.Context, error) {
	if wait {
		return zipc.WaitForInitialization(name, queueSize, messageSize)
	}
	return zipc.CreateReceiver(name, queueSize, messageSize)
}
