package oscar

import (
	"context"
	"crypto/md5"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/probeworks/oscarprobe/wire"
)

// TLV types used by the authorization exchange and the BOS signon.
const (
	tlvScreenName    = 0x0001
	tlvClientIDStr   = 0x0003
	tlvRedirectHost  = 0x0005
	tlvAuthCookie    = 0x0006
	tlvErrorCode     = 0x0008
	tlvCountry       = 0x000E
	tlvLanguage      = 0x000F
	tlvClientID      = 0x0016
	tlvVersionMajor  = 0x0017
	tlvVersionMinor  = 0x0018
	tlvVersionLesser = 0x0019
	tlvVersionBuild  = 0x001A
	tlvAuthKey       = 0x0025
)

// signonVersion is the 4-byte FLAP version marker sent on the signon
// channel at the start of every connection.
var signonVersion = []byte{0x00, 0x00, 0x00, 0x01}

// loginHashSalt is the fixed trailing fragment of the login hash. The
// concatenation order authKey || MD5(password) || salt is load-bearing;
// any other order produces a hash the server rejects.
const loginHashSalt = "AOL Instant Messenger (SM)"

// DefaultBOSPort is used when a redirect address omits the port.
const DefaultBOSPort = 5190

// clientIDString identifies this client in the login request.
const clientIDString = "AOL Instant Messenger, version 5.1.3036/WIN32"

// loginErrorMessages maps server-reported login error codes to messages.
var loginErrorMessages = map[uint16]string{
	0x0001: "Invalid nick or password",
	0x0004: "Incorrect nick or password",
	0x0005: "Mismatched nick or password",
	0x0011: "Account suspended",
	0x0018: "Rate limit exceeded",
}

// LoginErrorMessage decodes a login error code, rendering unknown codes
// generically instead of dropping them.
func LoginErrorMessage(code uint16) string {
	if msg, ok := loginErrorMessages[code]; ok {
		return msg
	}
	return fmt.Sprintf("Login failed (code %d)", code)
}

// AuthState tracks progress through the authentication exchange. Each
// state is reachable only from its predecessor; StateError absorbs any
// failure.
type AuthState int

const (
	StateDisconnected AuthState = iota
	StateSignonSent
	StateAuthKeyRequested
	StateAuthKeyReceived
	StateLoginSent
	StateLoggedIn
	StateError
)

// String returns a string representation of the auth state.
func (s AuthState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateSignonSent:
		return "signon_sent"
	case StateAuthKeyRequested:
		return "auth_key_requested"
	case StateAuthKeyReceived:
		return "auth_key_received"
	case StateLoginSent:
		return "login_sent"
	case StateLoggedIn:
		return "logged_in"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// AuthSession holds the transient state of one login attempt. It is
// created when the attempt begins and discarded with the operation; no
// field outlives the request.
type AuthSession struct {
	ScreenName string
	Password   string

	State   AuthState
	AuthKey []byte

	BOSHost string
	BOSPort int
	Cookie  []byte
}

// computeLoginHash derives the challenge response:
// MD5(authKey || MD5(password) || "AOL Instant Messenger (SM)").
func computeLoginHash(authKey []byte, password string) []byte {
	inner := md5.Sum([]byte(password))
	h := md5.New()
	h.Write(authKey)
	h.Write(inner[:])
	h.Write([]byte(loginHashSalt))
	return h.Sum(nil)
}

// authenticate runs the full exchange against the authentication server
// and returns a session carrying the BOS redirect. The auth socket is
// closed on every exit path; the BOS connection, if any, is the caller's
// to open.
func (e *Engine) authenticate(ctx context.Context, deadline time.Time) (*AuthSession, error) {
	sess := &AuthSession{
		ScreenName: e.cfg.ScreenName,
		Password:   e.cfg.Password,
		State:      StateDisconnected,
	}

	logger := e.logger.With().Str("com", "auth").Logger()
	conn, err := Dial(ctx, e.cfg.Addr(), logger)
	if err != nil {
		sess.State = StateError
		return nil, err
	}
	defer conn.Close()

	if err := e.runAuthExchange(conn, sess, deadline); err != nil {
		sess.State = StateError
		return nil, err
	}
	return sess, nil
}

func (e *Engine) runAuthExchange(conn *Conn, sess *AuthSession, deadline time.Time) error {
	// The server may greet with its own signon frame; absence is fine.
	conn.DiscardFrame(e.cfg.SignonWindow)

	if err := conn.WriteFrame(wire.ChannelSignon, signonVersion); err != nil {
		return err
	}
	sess.State = StateSignonSent

	keyReq := wire.AppendTLVString(nil, tlvScreenName, sess.ScreenName)
	if err := conn.WriteSNAC(wire.FamilyAuth, wire.SubKeyRequest, keyReq); err != nil {
		return err
	}
	sess.State = StateAuthKeyRequested

	keyResp, err := conn.ReadSNAC(wire.FamilyAuth, wire.SubKeyResponse, deadline)
	if err != nil {
		return err
	}
	authKey, ok := wire.DecodeTLVs(keyResp.Payload).Bytes(tlvAuthKey)
	if !ok {
		return protocolViolation("auth key missing from key response")
	}
	sess.AuthKey = authKey
	sess.State = StateAuthKeyReceived
	conn.logger.Debug().Int("key_len", len(authKey)).Msg("auth key received")

	loginReq := e.buildLoginRequest(sess)
	if err := conn.WriteSNAC(wire.FamilyAuth, wire.SubLoginRequest, loginReq); err != nil {
		return err
	}
	sess.State = StateLoginSent

	loginReply, err := conn.ReadSNAC(wire.FamilyAuth, wire.SubLoginReply, deadline)
	if err != nil {
		return err
	}
	if err := parseLoginReply(loginReply.Payload, sess); err != nil {
		return err
	}
	sess.State = StateLoggedIn
	conn.logger.Info().
		Str("bos_host", sess.BOSHost).
		Int("bos_port", sess.BOSPort).
		Msg("authenticated")
	return nil
}

func (e *Engine) buildLoginRequest(sess *AuthSession) []byte {
	hash := computeLoginHash(sess.AuthKey, sess.Password)

	buf := wire.AppendTLVString(nil, tlvScreenName, sess.ScreenName)
	buf = wire.AppendTLV(buf, tlvAuthKey, hash)
	buf = wire.AppendTLVString(buf, tlvClientIDStr, clientIDString)
	buf = wire.AppendTLVUint16(buf, tlvClientID, 0x0109)
	buf = wire.AppendTLVUint16(buf, tlvVersionMajor, 5)
	buf = wire.AppendTLVUint16(buf, tlvVersionMinor, 1)
	buf = wire.AppendTLVUint16(buf, tlvVersionLesser, 0)
	buf = wire.AppendTLVUint16(buf, tlvVersionBuild, 3036)
	buf = wire.AppendTLVString(buf, tlvLanguage, "en")
	buf = wire.AppendTLVString(buf, tlvCountry, "us")
	return buf
}

// parseLoginReply extracts either a rejection or the BOS redirect from
// the login reply TLVs.
func parseLoginReply(payload []byte, sess *AuthSession) error {
	tlvs := wire.DecodeTLVs(payload)

	if code, ok := tlvs.Uint16(tlvErrorCode); ok {
		return &AuthRejectedError{Code: code, Message: LoginErrorMessage(code)}
	}

	addr, hasAddr := tlvs.String(tlvRedirectHost)
	cookie, hasCookie := tlvs.Bytes(tlvAuthCookie)
	if !hasAddr || !hasCookie {
		return protocolViolation("Login reply missing BOS address or auth cookie")
	}

	host, port, err := splitRedirect(addr)
	if err != nil {
		return err
	}
	sess.BOSHost = host
	sess.BOSPort = port
	sess.Cookie = cookie
	return nil
}

// splitRedirect parses a "host:port" redirect address; the port is
// optional and defaults to DefaultBOSPort.
func splitRedirect(addr string) (string, int, error) {
	host, portStr, found := strings.Cut(addr, ":")
	if host == "" {
		return "", 0, protocolViolation("empty host in redirect address %q", addr)
	}
	if !found || portStr == "" {
		return host, DefaultBOSPort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, protocolViolation("invalid port in redirect address %q", addr)
	}
	return host, port, nil
}

// BOSAddr returns the post-redirect session server address.
func (s *AuthSession) BOSAddr() string {
	return net.JoinHostPort(s.BOSHost, strconv.Itoa(s.BOSPort))
}
