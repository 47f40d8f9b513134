// Command spspclient resolves a payment pointer over SPSP and sends it
// a STREAM payment through a local connector's ILP-over-HTTP ingress.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ilpgo/connector/internal/httptransport"
	"github.com/ilpgo/connector/internal/spsp"
	"github.com/ilpgo/connector/pkg/ilppacket"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

func main() {
	pointer := flag.String("pointer", "", "payment pointer or SPSP URL of the receiver")
	amount := flag.Uint64("amount", 0, "source amount to send, in the sending account's minor units")
	connectorURL := flag.String("connector-url", "http://localhost:7770/ilp", "this node's ILP-over-HTTP ingress URL")
	username := flag.String("username", "", "this account's username on the connector")
	token := flag.String("token", "", "this account's outgoing HTTP token")
	timeout := flag.Duration("timeout", 30*time.Second, "overall payment timeout")
	flag.Parse()

	if *pointer == "" || *amount == 0 || *username == "" || *token == "" {
		fmt.Fprintln(os.Stderr, "usage: spspclient -pointer=$alice.example -amount=1000 -username=bob -token=secret")
		os.Exit(1)
	}

	client := &httptransport.Client{
		URL:      *connectorURL,
		Username: *username,
		Token:    *token,
	}

	payer := spsp.NewPayer(&spsp.Client{}, func(ctx context.Context, prepare ilppacket.Prepare) (ilpservice.Result, error) {
		return client.SendRequest(ctx, ilpservice.OutgoingRequest{Prepare: prepare})
	})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	delivered, err := payer.Pay(ctx, *pointer, *amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "payment failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("delivered %d units to %s\n", delivered, *pointer)
}
