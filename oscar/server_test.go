package oscar

import (
	"errors"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/probeworks/oscarprobe/config"
	"github.com/probeworks/oscarprobe/wire"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// testServer accepts a single connection on a loopback listener and runs a
// scripted handler against it. After the handler returns, the remaining
// stream is drained so the test can observe the client closing its socket.
type testServer struct {
	ln         net.Listener
	done       chan struct{}
	clientGone chan struct{}
}

func startTestServer(t *testing.T, handler func(sc *serverConn)) *testServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ts := &testServer{
		ln:         ln,
		done:       make(chan struct{}),
		clientGone: make(chan struct{}),
	}
	go func() {
		defer close(ts.done)
		nc, err := ln.Accept()
		if err != nil {
			return
		}
		defer nc.Close()

		sc := &serverConn{t: t, nc: nc}
		handler(sc)

		nc.SetReadDeadline(time.Now().Add(5 * time.Second))
		io.Copy(io.Discard, nc)
		close(ts.clientGone)
	}()
	t.Cleanup(func() {
		ln.Close()
		<-ts.done
	})
	return ts
}

func (ts *testServer) addr() string {
	return ts.ln.Addr().String()
}

// waitClientGone fails the test unless the client side closes its socket
// within the given window.
func (ts *testServer) waitClientGone(t *testing.T, window time.Duration) {
	t.Helper()
	select {
	case <-ts.clientGone:
	case <-time.After(window):
		t.Fatal("client did not close its connection")
	}
}

// serverConn speaks FLAP from the server side of a scripted exchange.
// Helpers report failures with t.Error (not Fatal: they run off the test
// goroutine) and return zero values the script must check.
type serverConn struct {
	t   *testing.T
	nc  net.Conn
	seq uint16
	buf []byte
}

func (sc *serverConn) writeFrame(channel wire.Channel, payload []byte) {
	sc.seq++
	frame := wire.EncodeFrame(&wire.Frame{Channel: channel, Sequence: sc.seq, Payload: payload})
	if _, err := sc.nc.Write(frame); err != nil {
		sc.t.Errorf("server write frame: %v", err)
	}
}

func (sc *serverConn) writeSNAC(family, subtype uint16, payload []byte) {
	sc.writeFrame(wire.ChannelData, wire.EncodeSNAC(&wire.SNAC{
		Family:  family,
		Subtype: subtype,
		Payload: payload,
	}))
}

func (sc *serverConn) greet() {
	sc.writeFrame(wire.ChannelSignon, []byte{0x00, 0x00, 0x00, 0x01})
}

func (sc *serverConn) readFrame() *wire.Frame {
	deadline := time.Now().Add(5 * time.Second)
	chunk := make([]byte, 4096)
	for {
		frame, consumed, err := wire.DecodeFrame(sc.buf)
		if err == nil {
			sc.buf = sc.buf[consumed:]
			return frame
		}
		if !errors.Is(err, wire.ErrIncompleteFrame) {
			sc.t.Errorf("server decode frame: %v", err)
			return nil
		}
		sc.nc.SetReadDeadline(deadline)
		n, err := sc.nc.Read(chunk)
		if n > 0 {
			sc.buf = append(sc.buf, chunk[:n]...)
			continue
		}
		if err != nil {
			sc.t.Errorf("server read: %v", err)
			return nil
		}
	}
}

func (sc *serverConn) readSNAC() *wire.SNAC {
	for {
		frame := sc.readFrame()
		if frame == nil {
			return nil
		}
		if frame.Channel != wire.ChannelData {
			continue
		}
		snac, err := wire.DecodeSNAC(frame.Payload)
		if err != nil {
			sc.t.Errorf("server decode snac: %v", err)
			return nil
		}
		return snac
	}
}

// authScript runs the server side of the authentication exchange, replying
// with the given key and login reply payload.
func authScript(authKey, loginReply []byte) func(sc *serverConn) {
	return func(sc *serverConn) {
		sc.greet()
		if frame := sc.readFrame(); frame == nil || frame.Channel != wire.ChannelSignon {
			sc.t.Error("expected client signon frame")
			return
		}
		if snac := sc.readSNAC(); snac == nil || snac.Subtype != wire.SubKeyRequest {
			sc.t.Error("expected key request")
			return
		}
		sc.writeSNAC(wire.FamilyAuth, wire.SubKeyResponse, wire.AppendTLV(nil, 0x0025, authKey))
		if snac := sc.readSNAC(); snac == nil || snac.Subtype != wire.SubLoginRequest {
			sc.t.Error("expected login request")
			return
		}
		sc.writeSNAC(wire.FamilyAuth, wire.SubLoginReply, loginReply)
	}
}

// testEngine builds an engine pointed at the given listener address with
// tight test timeouts.
func testEngine(t *testing.T, addr string) *Engine {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg := &config.Probe{
		Host:         host,
		Port:         port,
		ScreenName:   "testuser",
		Password:     "hunter2",
		Target:       "buddyname",
		Message:      "hello there",
		Timeout:      3 * time.Second,
		SignonWindow: 200 * time.Millisecond,
		AckWindow:    300 * time.Millisecond,
	}
	return New(cfg, testLogger())
}
