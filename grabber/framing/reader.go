package framing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

const readChunkSize = 64 * 1024

// Reply is what the read phase produced. Data may be an incomplete
// document when the peer closed or the timeout fired first; parsing it is
// the caller's job.
type Reply struct {
	Data     []byte
	Complete bool
	TimedOut bool
	// Discarded counts bytes that arrived after the closing brace.
	Discarded int
}

// Receive reads from r until f reports a complete document, r returns
// EOF, or a read times out. Any other read error is returned as is.
func Receive(r io.Reader, f Framer) (*Reply, error) {
	var (
		buf   bytes.Buffer
		chunk = make([]byte, readChunkSize)
		reply = &Reply{}
	)

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			complete, consumed := f.Feed(chunk[:n])
			buf.Write(chunk[:consumed])
			if complete {
				reply.Complete = true
				reply.Discarded = n - consumed
				break
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if isTimeout(err) {
				reply.TimedOut = true
				break
			}
			reply.Data = buf.Bytes()
			return reply, err
		}
	}

	reply.Data = bytes.TrimSpace(buf.Bytes())
	return reply, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// TCPTransport opens one TCP connection per command.
type TCPTransport struct {
	// NewFramer overrides the framing strategy; nil means BraceFramer.
	NewFramer func() Framer
}

// SendAndReceive dials address, writes command in one call, and reads one
// framed document. timeout bounds the dial and, separately, the whole
// read phase. The connection is always closed before returning.
func (t *TCPTransport) SendAndReceive(ctx context.Context, address, command string, timeout time.Duration) (*Reply, error) {
	if command == "" {
		return nil, ErrEmptyCommand
	}

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, &ConnectionError{Op: "dial", Addr: address, Err: err}
	}
	defer func() {
		_ = conn.Close()
	}()

	if _, err := conn.Write([]byte(command)); err != nil {
		return nil, &ConnectionError{Op: "write", Addr: address, Err: err}
	}
	log.Debug().Str("addr", address).Str("cmd", command).Msg("command sent")

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, &ConnectionError{Op: "read", Addr: address, Err: err}
	}

	// unblock the read loop if ctx is cancelled mid-read
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	framer := t.framer()
	reply, err := Receive(conn, framer)
	if err != nil {
		return nil, &ConnectionError{Op: "read", Addr: address, Err: err}
	}
	if ctx.Err() != nil && !reply.Complete {
		return nil, &ConnectionError{Op: "read", Addr: address, Err: ctx.Err()}
	}

	log.Debug().
		Str("addr", address).
		Int("bytes", len(reply.Data)).
		Bool("complete", reply.Complete).
		Bool("timed_out", reply.TimedOut).
		Int("discarded", reply.Discarded).
		Msg("read phase finished")

	if len(reply.Data) == 0 {
		reason := "peer closed"
		if reply.TimedOut {
			reason = fmt.Sprintf("no data within %s", timeout)
		}
		return reply, fmt.Errorf("%w (%s)", ErrEmptyResponse, reason)
	}
	return reply, nil
}

func (t *TCPTransport) framer() Framer {
	if t != nil && t.NewFramer != nil {
		return t.NewFramer()
	}
	return NewBraceFramer()
}
