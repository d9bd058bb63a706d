package oscar

import (
	"errors"

	jsoniter "github.com/json-iterator/go"
)

// json is a drop-in replacement for encoding/json with better performance
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// LoginResult reports the outcome of an authentication attempt.
type LoginResult struct {
	Success   bool   `json:"success"`
	BOSHost   string `json:"bosHost,omitempty"`
	BOSPort   int    `json:"bosPort,omitempty"`
	CookieHex string `json:"cookieHex,omitempty"`
	ErrorCode uint16 `json:"errorCode,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ContactListResult reports a fetched server-stored contact list.
type ContactListResult struct {
	Success   bool          `json:"success"`
	BOSHost   string        `json:"bosHost,omitempty"`
	BOSPort   int           `json:"bosPort,omitempty"`
	ItemCount int           `json:"itemCount"`
	Buddies   []string      `json:"buddies"`
	Groups    []string      `json:"groups"`
	AllItems  []ContactItem `json:"allItems"`
	ErrorCode uint16        `json:"errorCode,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// SendResult reports an instant-message send. AckSNAC is the
// "FFFF/FFFF"-formatted envelope observed in the ack window, or null.
type SendResult struct {
	Success     bool    `json:"success"`
	BOSServer   string  `json:"bosServer,omitempty"`
	MessageSent bool    `json:"messageSent"`
	AckSNAC     *string `json:"ackSNAC"`
	ErrorCode   uint16  `json:"errorCode,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// failureFields extracts the error code (for credential rejections) and
// message shared by every failure result shape.
func failureFields(err error) (uint16, string) {
	var rejected *AuthRejectedError
	if errors.As(err, &rejected) {
		return rejected.Code, rejected.Message
	}
	return 0, err.Error()
}

// LoginFailure maps an engine error to the failure result shape.
func LoginFailure(err error) *LoginResult {
	code, msg := failureFields(err)
	return &LoginResult{ErrorCode: code, Error: msg}
}

// ContactListFailure maps an engine error to the failure result shape.
func ContactListFailure(err error) *ContactListResult {
	code, msg := failureFields(err)
	return &ContactListResult{ErrorCode: code, Error: msg}
}

// SendFailure maps an engine error to the failure result shape.
func SendFailure(err error) *SendResult {
	code, msg := failureFields(err)
	return &SendResult{ErrorCode: code, Error: msg}
}

// MarshalResult serializes any result for output.
func MarshalResult(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
