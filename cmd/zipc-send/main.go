// Command zipc-send creates a channel and sends lines read from stdin.
package main

import (
	"bufio"
	"flag"
	"log"
	"os"

	"github.com/karlbohlmark/zipc"
)

func main() {
	name := flag.String("name", "/zipc-demo", "channel name")
	queueSize := flag.Uint("queue-size", 64, "queue size, power of two")
	messageSize := flag.Uint("message-size", 1024, "maximum message size in bytes")
	flag.Parse()

	ctx, err := zipc.CreateSender(*name, uint32(*queueSize), uint32(*messageSize))
	if err != nil {
		log.Fatalf("zipc-send: create sender: %v", err)
	}
	defer ctx.Close()

	log.Printf("zipc-send: endpoint %s bound to %s", ctx.ID(), *name)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := append(scanner.Bytes(), 0)
		if err := ctx.Send(line); err != nil {
			log.Fatalf("zipc-send: send: %v", err)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("zipc-send: read stdin: %v", err)
	}
}
