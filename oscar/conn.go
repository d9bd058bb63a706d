package oscar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/probeworks/oscarprobe/wire"
)

// Conn wraps a TCP connection with FLAP framing. Two connections exist
// sequentially per operation (authentication server, then BOS), never
// concurrently; each is owned by exactly one flow and closed before the
// next is opened or an error is propagated.
type Conn struct {
	nc     net.Conn
	seq    uint16
	reqID  atomic.Uint32
	logger zerolog.Logger
}

// Dial opens a TCP connection to addr, honoring ctx for cancellation of
// the dial itself.
func Dial(ctx context.Context, addr string, logger zerolog.Logger) (*Conn, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	logger.Debug().Str("addr", addr).Msg("connected")
	return &Conn{nc: nc, logger: logger}, nil
}

// Close closes the underlying socket. Safe to call more than once.
func (c *Conn) Close() error {
	return c.nc.Close()
}

// WriteFrame writes one FLAP frame, assigning the next outgoing sequence
// number.
func (c *Conn) WriteFrame(channel wire.Channel, payload []byte) error {
	c.seq++
	buf := wire.GetBuffer()
	defer wire.PutBuffer(buf)
	wire.EncodeFrameTo(buf, &wire.Frame{
		Channel:  channel,
		Sequence: c.seq,
		Payload:  payload,
	})

	if _, err := c.nc.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	c.logger.Trace().
		Stringer("channel", channel).
		Int("len", len(payload)).
		Msg("frame sent")
	return nil
}

// WriteSNAC wraps payload in a service envelope and a data-channel frame
// and writes it. The request id is assigned from a per-connection counter;
// replies are matched on (family, subtype), not on the request id, because
// not all server implementations echo it reliably.
func (c *Conn) WriteSNAC(family, subtype uint16, payload []byte) error {
	snac := wire.EncodeSNAC(&wire.SNAC{
		Family:    family,
		Subtype:   subtype,
		RequestID: c.reqID.Add(1),
		Payload:   payload,
	})
	c.logger.Trace().
		Str("snac", fmt.Sprintf("%04X/%04X", family, subtype)).
		Msg("snac sent")
	return c.WriteFrame(wire.ChannelData, snac)
}

// WriteKeepalive writes an empty keepalive-channel frame.
func (c *Conn) WriteKeepalive() error {
	return c.WriteFrame(wire.ChannelKeepalive, nil)
}

// WriteSignoff writes a close-channel frame. Best effort: engines send it
// before tearing down a session that completed normally.
func (c *Conn) WriteSignoff() error {
	return c.WriteFrame(wire.ChannelClose, nil)
}

// ReadFrame reads one complete frame, accumulating partial socket reads
// until the length declared by the header has arrived or the deadline
// elapses. Partial bytes are discarded on failure; each call is scoped to
// one expected reply, so nothing carries over between calls.
func (c *Conn) ReadFrame(deadline time.Time) (*wire.Frame, error) {
	var buf []byte
	chunk := make([]byte, 4096)

	for {
		frame, _, err := wire.DecodeFrame(buf)
		if err == nil {
			return frame, nil
		}
		if !errors.Is(err, wire.ErrIncompleteFrame) {
			return nil, err
		}

		if !time.Now().Before(deadline) {
			return nil, ErrTimeout
		}
		if err := c.nc.SetReadDeadline(deadline); err != nil {
			return nil, fmt.Errorf("set read deadline: %w", err)
		}

		n, readErr := c.nc.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if readErr != nil {
			// Read may deliver final bytes together with the error;
			// they can complete (or condemn) the frame.
			frame, _, err := wire.DecodeFrame(buf)
			if err == nil {
				return frame, nil
			}
			if !errors.Is(err, wire.ErrIncompleteFrame) {
				return nil, err
			}
			var netErr net.Error
			switch {
			case errors.As(readErr, &netErr) && netErr.Timeout():
				return nil, ErrTimeout
			case errors.Is(readErr, io.EOF):
				return nil, ErrConnectionClosed
			default:
				return nil, fmt.Errorf("read frame: %w", readErr)
			}
		}
	}
}

// ReadSNAC reads frames until a data-channel frame carrying an envelope
// with the requested (family, subtype) arrives, silently discarding
// everything else, or the deadline elapses.
func (c *Conn) ReadSNAC(family, subtype uint16, deadline time.Time) (*wire.SNAC, error) {
	for {
		frame, err := c.ReadFrame(deadline)
		if err != nil {
			return nil, err
		}
		if frame.Channel != wire.ChannelData {
			c.logger.Trace().
				Stringer("channel", frame.Channel).
				Msg("discarding non-data frame")
			continue
		}
		snac, err := wire.DecodeSNAC(frame.Payload)
		if err != nil {
			return nil, err
		}
		if snac.Family != family || snac.Subtype != subtype {
			c.logger.Trace().
				Str("snac", fmt.Sprintf("%04X/%04X", snac.Family, snac.Subtype)).
				Msg("discarding unexpected snac")
			continue
		}
		return snac, nil
	}
}

// DiscardFrame reads and drops one frame within the given window. Servers
// send an unsolicited signon frame right after accepting a connection; its
// absence or malformation is not fatal, so every outcome is swallowed.
func (c *Conn) DiscardFrame(window time.Duration) {
	frame, err := c.ReadFrame(time.Now().Add(window))
	if err != nil {
		c.logger.Debug().Err(err).Msg("no server signon frame observed")
		return
	}
	c.logger.Debug().
		Stringer("channel", frame.Channel).
		Int("len", len(frame.Payload)).
		Msg("discarded server signon frame")
}
