package oscar

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"
)

// TestMain ensures no goroutine leaks across all tests in this package.
// Every operation owns at most one socket at a time and must release it on
// every exit path, including timeouts and protocol violations.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// TestLogin_TimeoutLeavesNothingBehind repeats a timing-out login to prove
// failed attempts do not accumulate goroutines or open sockets.
func TestLogin_TimeoutLeavesNothingBehind(t *testing.T) {
	defer goleak.VerifyNone(t)

	for i := 0; i < 3; i++ {
		ts := startTestServer(t, func(sc *serverConn) {
			sc.greet()
			if frame := sc.readFrame(); frame == nil {
				return
			}
			if snac := sc.readSNAC(); snac == nil {
				return
			}
			// Never reply.
		})
		engine := testEngine(t, ts.addr())
		engine.cfg.Timeout = 300 * time.Millisecond

		_, err := engine.Login(context.Background())
		if err == nil {
			t.Fatal("expected a timeout error")
		}
		ts.waitClientGone(t, time.Second)
	}
}

// TestLogin_DialFailureLeavesNothingBehind covers the earliest failure
// path: the connection never opens at all.
func TestLogin_DialFailureLeavesNothingBehind(t *testing.T) {
	defer goleak.VerifyNone(t)

	ts := startTestServer(t, func(sc *serverConn) {})
	engine := testEngine(t, ts.addr())
	ts.ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := engine.Login(ctx); err == nil {
		t.Fatal("expected a dial error")
	}
}
