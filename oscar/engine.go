package oscar

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/probeworks/oscarprobe/config"
)

// Engine drives one OSCAR protocol operation per call. Each call is a
// single logical flow: at most one TCP connection is open at a time, the
// authentication connection is fully closed before the BOS connection is
// opened, and every socket is closed before an error reaches the caller.
// The configured timeout is the only cancellation mechanism mid-flow.
type Engine struct {
	cfg    *config.Probe
	logger zerolog.Logger
}

// New creates an engine for the given probe configuration. Every operation
// the engine runs is tagged with a fresh probe id for log correlation.
func New(cfg *config.Probe, logger zerolog.Logger) *Engine {
	return &Engine{cfg: cfg, logger: logger}
}

func (e *Engine) opLogger() zerolog.Logger {
	return e.logger.With().Str("probe_id", uuid.NewString()).Logger()
}

// Login authenticates against the server and reports the BOS redirect
// without connecting to it.
func (e *Engine) Login(ctx context.Context) (*LoginResult, error) {
	op := *e
	op.logger = e.opLogger()
	deadline := time.Now().Add(e.cfg.Timeout)

	sess, err := op.authenticate(ctx, deadline)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Success:   true,
		BOSHost:   sess.BOSHost,
		BOSPort:   sess.BOSPort,
		CookieHex: hex.EncodeToString(sess.Cookie),
	}, nil
}

// ContactList authenticates, bootstraps the BOS session, and fetches the
// server-stored contact list.
func (e *Engine) ContactList(ctx context.Context) (*ContactListResult, error) {
	op := *e
	op.logger = e.opLogger()
	deadline := time.Now().Add(e.cfg.Timeout)

	sess, err := op.authenticate(ctx, deadline)
	if err != nil {
		return nil, err
	}

	conn, err := op.connectBOS(ctx, sess, deadline)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	items, err := op.fetchContactList(conn, deadline)
	if err != nil {
		return nil, err
	}
	conn.WriteSignoff()

	result := &ContactListResult{
		Success:   true,
		BOSHost:   sess.BOSHost,
		BOSPort:   sess.BOSPort,
		ItemCount: len(items),
		Buddies:   []string{},
		Groups:    []string{},
		AllItems:  items,
	}
	for _, item := range items {
		switch item.Kind {
		case KindBuddy:
			result.Buddies = append(result.Buddies, item.Name)
		case KindGroup:
			result.Groups = append(result.Groups, item.Name)
		}
	}
	return result, nil
}

// SendMessage authenticates, bootstraps the BOS session, and sends one
// instant message to the configured target.
func (e *Engine) SendMessage(ctx context.Context) (*SendResult, error) {
	op := *e
	op.logger = e.opLogger()
	deadline := time.Now().Add(e.cfg.Timeout)

	sess, err := op.authenticate(ctx, deadline)
	if err != nil {
		return nil, err
	}

	conn, err := op.connectBOS(ctx, sess, deadline)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	ack, err := op.sendMessage(conn, e.cfg.Target, e.cfg.Message)
	if err != nil {
		return nil, err
	}
	conn.WriteSignoff()

	result := &SendResult{
		Success:     true,
		BOSServer:   sess.BOSAddr(),
		MessageSent: true,
	}
	if ack != "" {
		result.AckSNAC = &ack
	}
	return result, nil
}
