// Package addr parses and formats peer address tokens of the form host:port.
package addr

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ErrInvalidAddress is returned for tokens that are not a valid host:port pair.
var ErrInvalidAddress = errors.New("invalid address")

// MaxPort is the largest valid TCP port.
const MaxPort = 65535

// Parse splits a "host:port" token into its host and port parts.
// IPv6 hosts must be bracketed ("[::1]:9000"). The host may be empty
// (":9000"), which callers treat as "all interfaces" when listening.
// The port must be a decimal number in [0, 65535].
func Parse(token string) (host, port string, err error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "", fmt.Errorf("%w: empty token", ErrInvalidAddress)
	}
	host, port, err = net.SplitHostPort(token)
	if err != nil {
		return "", "", fmt.Errorf("%w: %q: %v", ErrInvalidAddress, token, err)
	}
	if err := ValidateHost(host); err != nil {
		return "", "", err
	}
	if _, err := ParsePort(port); err != nil {
		return "", "", err
	}
	return host, port, nil
}

// ParsePort validates a port string and returns its numeric value.
func ParsePort(port string) (int, error) {
	if port == "" {
		return 0, fmt.Errorf("%w: missing port", ErrInvalidAddress)
	}
	for _, c := range port {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: port %q is not numeric", ErrInvalidAddress, port)
		}
	}
	n, err := strconv.Atoi(port)
	if err != nil || n > MaxPort {
		return 0, fmt.Errorf("%w: port %q out of range", ErrInvalidAddress, port)
	}
	return n, nil
}

// ValidateHost rejects hosts that can never resolve: whitespace, path
// separators, or an unbracketed zone-less colon soup. An empty host is valid.
func ValidateHost(host string) error {
	if strings.ContainsAny(host, " \t\r\n/\\[]") {
		return fmt.Errorf("%w: host %q", ErrInvalidAddress, host)
	}
	if strings.Contains(host, ":") && net.ParseIP(stripZone(host)) == nil {
		return fmt.Errorf("%w: host %q", ErrInvalidAddress, host)
	}
	return nil
}

// Join builds a dialable "host:port" string, bracketing IPv6 hosts.
func Join(host, port string) string {
	return net.JoinHostPort(host, port)
}

// Validate checks a host and port pair that did not come from a token.
// Unlike Parse, the host must be present because it is going to be dialed.
func Validate(host, port string) error {
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidAddress)
	}
	if err := ValidateHost(host); err != nil {
		return err
	}
	_, err := ParsePort(port)
	return err
}

func stripZone(host string) string {
	if i := strings.IndexByte(host, '%'); i >= 0 {
		return host[:i]
	}
	return host
}
