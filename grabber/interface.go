package grabber

import (
	"context"
	"fmt"
	"time"

	"github.com/spance/openterface-grab/grabber/definitions"
	"github.com/spance/openterface-grab/grabber/framing"
)

// Transport sends one command and returns the framed reply.
type Transport interface {
	SendAndReceive(ctx context.Context, address, command string, timeout time.Duration) (*framing.Reply, error)
}

// Requester is what the capture driver needs from a client.
type Requester interface {
	Request(ctx context.Context, command string) (*definitions.Result, error)
}

func CreateTransport(framer string) (Transport, error) {
	switch framer {
	case "", "brace":
		return &framing.TCPTransport{}, nil
	default:
		return nil, fmt.Errorf("unknown framer: %v", framer)
	}
}
