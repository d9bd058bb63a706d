package config

import "time"

// Default timeout and port values
const (
	// DefaultPort is the standard OSCAR authentication server port.
	DefaultPort = 5190

	// DefaultTimeout bounds a whole probe operation.
	DefaultTimeout = 10 * time.Second

	// DefaultSignonWindow bounds the wait for the server's unsolicited
	// signon frame; its absence is not an error.
	DefaultSignonWindow = 2 * time.Second

	// DefaultAckWindow bounds the opportunistic wait for a message
	// acknowledgement after a send.
	DefaultAckWindow = 2 * time.Second
)

// ApplyDefaults fills zero-valued fields with their defaults.
func (p *Probe) ApplyDefaults() {
	if p.Port == 0 {
		p.Port = DefaultPort
	}
	if p.Timeout == 0 {
		p.Timeout = DefaultTimeout
	}
	if p.SignonWindow == 0 {
		p.SignonWindow = DefaultSignonWindow
	}
	if p.AckWindow == 0 {
		p.AckWindow = DefaultAckWindow
	}
}
