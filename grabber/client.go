package grabber

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spance/openterface-grab/grabber/definitions"
	"github.com/spance/openterface-grab/grabber/helper"
)

// Client issues single commands to a capture server. It holds no
// connection; every Request dials anew.
type Client struct {
	Address   string
	Timeout   time.Duration
	Transport Transport
}

func NewClient(host string, port int, timeout time.Duration, transport Transport) *Client {
	return &Client{
		Address:   net.JoinHostPort(host, strconv.Itoa(port)),
		Timeout:   timeout,
		Transport: transport,
	}
}

// Request sends command and interprets the reply. Errors keep their
// stage-specific types; see helper.Stage.
func (c *Client) Request(ctx context.Context, command string) (*definitions.Result, error) {
	logger := log.With().
		Str("req", uuid.New().String()).
		Str("addr", c.Address).
		Str("cmd", command).
		Logger()

	start := time.Now()
	reply, err := c.Transport.SendAndReceive(ctx, c.Address, command, c.Timeout)
	if err != nil {
		logger.Debug().Err(err).Str("stage", helper.Stage(err)).Msg("request failed")
		return nil, err
	}
	if !reply.Complete {
		logger.Debug().
			Bool("timed_out", reply.TimedOut).
			Int("bytes", len(reply.Data)).
			Msg("reply ended before the document closed")
	}

	resp, err := helper.ParseResponse(reply.Data)
	if err != nil {
		logger.Debug().Err(err).Msg("parse failed")
		return nil, err
	}

	result, err := helper.Interpret(resp, command)
	if err != nil {
		logger.Debug().Err(err).Str("stage", helper.Stage(err)).Msg("interpret failed")
		return nil, err
	}

	logger.Debug().
		Str("type", string(resp.Type)).
		Str("kind", result.Kind.String()).
		Dur("elapsed", time.Since(start)).
		Msg("request done")
	return result, nil
}
