package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	EnvPrefix = "OSCARPROBE_"
)

// Probe holds the parameters of one probe operation. Callers are expected
// to have validated host/credentials before the engine runs; Validate
// enforces the same contract for the CLI path.
type Probe struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	ScreenName string `yaml:"screen_name"`
	Password   string `yaml:"password"`

	// Send parameters, required only for the send operation.
	Target  string `yaml:"target"`
	Message string `yaml:"message"`

	// Timeout bounds the whole operation. SignonWindow bounds the
	// discard of the server's unsolicited signon frame; AckWindow bounds
	// the opportunistic wait for a message acknowledgement.
	Timeout      time.Duration `yaml:"timeout"`
	SignonWindow time.Duration `yaml:"signon_window"`
	AckWindow    time.Duration `yaml:"ack_window"`
}

// Addr returns the authentication server address.
func (p *Probe) Addr() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// Validate checks that required fields are present.
func (p *Probe) Validate() error {
	if p.Host == "" {
		return fmt.Errorf("host is required")
	}
	if p.Port <= 0 || p.Port > 65535 {
		return fmt.Errorf("invalid port: %d", p.Port)
	}
	if p.ScreenName == "" {
		return fmt.Errorf("screen_name is required")
	}
	if p.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// ValidateSend checks the extra fields the send operation needs.
func (p *Probe) ValidateSend() error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Target == "" {
		return fmt.Errorf("target is required for send")
	}
	if p.Message == "" {
		return fmt.Errorf("message is required for send")
	}
	return nil
}
