// Package netlink brings up the wireless link the controller talks through.
package netlink

import (
	"context"
	"errors"
	"net/netip"
	"strings"
)

// Link status codes. Values mirror the CYW43 driver the device firmware
// reports, so a status of 1 or more means the join has progressed.
const (
	StatusBadAuth = -3
	StatusNoNet   = -2
	StatusFail    = -1
	StatusDown    = 0
	StatusJoin    = 1
	StatusNoIP    = 2
	StatusUp      = 3
)

// ZeroAddress is reported when the link has no usable address.
const ZeroAddress = "0.0.0.0"

// ErrCommand is wrapped by failures of the underlying network tool.
var ErrCommand = errors.New("netlink: command failed")

// Credentials are the pre-provisioned network secrets.
type Credentials struct {
	SSID     string
	Password string
}

// AddressConfig is the fixed IPv4 configuration applied to the link.
type AddressConfig struct {
	IP      string
	Netmask string
	Gateway string
	DNS     string
}

// Link is the network link service.
type Link interface {
	// Activate powers the radio.
	Activate(ctx context.Context) error
	// Scan returns visible network names.
	Scan(ctx context.Context) ([]string, error)
	// Connect starts joining the network with a static address.
	Connect(ctx context.Context, creds Credentials, addr AddressConfig) error
	// Status returns the current link status code.
	Status(ctx context.Context) (int, error)
	// CurrentAddress returns the assigned IPv4 address, or ZeroAddress.
	CurrentAddress(ctx context.Context) (string, error)
}

// StatusText names a status code.
func StatusText(code int) string {
	switch code {
	case StatusBadAuth:
		return "bad auth"
	case StatusNoNet:
		return "no net"
	case StatusFail:
		return "fail"
	case StatusDown:
		return "down"
	case StatusJoin:
		return "join"
	case StatusNoIP:
		return "no ip"
	case StatusUp:
		return "up"
	}
	return "unknown"
}

// IsZeroAddress reports whether ip is the unspecified address or otherwise
// unusable. Unparsable text and anything in 0.0.0.0/8 count as zero.
func IsZeroAddress(ip string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return true
	}
	addr = addr.Unmap()
	if addr.IsUnspecified() {
		return true
	}
	return addr.Is4() && addr.As4()[0] == 0
}
