package netlink

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os/exec"
	"strconv"
	"strings"
)

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// NMCLI drives NetworkManager through the nmcli tool.
type NMCLI struct {
	Interface  string
	Connection string
	Run        Runner
}

// NewNMCLI creates an NMCLI link for iface. The saved connection profile is
// named after the device.
func NewNMCLI(iface, connection string) *NMCLI {
	if connection == "" {
		connection = "dumb-door"
	}
	return &NMCLI{Interface: iface, Connection: connection, Run: ExecRunner}
}

func (n *NMCLI) nmcli(ctx context.Context, args ...string) ([]byte, error) {
	out, err := n.Run(ctx, "nmcli", args...)
	if err != nil {
		return out, fmt.Errorf("%w: nmcli %s: %v (output: %s)", ErrCommand, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return out, nil
}

// Activate turns the wifi radio on.
func (n *NMCLI) Activate(ctx context.Context) error {
	_, err := n.nmcli(ctx, "radio", "wifi", "on")
	return err
}

// Scan lists visible SSIDs, skipping hidden networks and duplicates.
func (n *NMCLI) Scan(ctx context.Context) ([]string, error) {
	out, err := n.nmcli(ctx, "-t", "-f", "SSID", "dev", "wifi", "list", "ifname", n.Interface, "--rescan", "yes")
	if err != nil {
		return nil, err
	}
	return parseSSIDs(string(out)), nil
}

// Connect writes a wifi profile carrying the static address and brings it up.
// An existing profile of the same name is replaced. With no address
// configured the profile falls back to DHCP.
func (n *NMCLI) Connect(ctx context.Context, creds Credentials, addr AddressConfig) error {
	args, err := n.profileArgs(creds, addr)
	if err != nil {
		return err
	}

	// Absent on first boot.
	_, _ = n.Run(ctx, "nmcli", "con", "delete", n.Connection)

	if _, err := n.nmcli(ctx, args...); err != nil {
		return err
	}
	_, err = n.nmcli(ctx, "con", "up", n.Connection, "ifname", n.Interface)
	return err
}

func (n *NMCLI) profileArgs(creds Credentials, addr AddressConfig) ([]string, error) {
	args := []string{"con", "add", "type", "wifi", "ifname", n.Interface,
		"con-name", n.Connection, "ssid", creds.SSID, "connection.autoconnect", "no"}
	if creds.Password != "" {
		args = append(args, "wifi-sec.key-mgmt", "wpa-psk", "wifi-sec.psk", creds.Password)
	}

	if addr.IP == "" {
		return append(args, "ipv4.method", "auto"), nil
	}
	cidr, err := toCIDR(addr.IP, addr.Netmask)
	if err != nil {
		return nil, err
	}
	args = append(args, "ipv4.method", "manual", "ipv4.addresses", cidr)
	if addr.Gateway != "" {
		args = append(args, "ipv4.gateway", addr.Gateway)
	}
	if addr.DNS != "" {
		args = append(args, "ipv4.dns", addr.DNS)
	}
	return args, nil
}

// Status maps the NetworkManager device state to a link status code.
func (n *NMCLI) Status(ctx context.Context) (int, error) {
	out, err := n.nmcli(ctx, "-t", "-f", "GENERAL.STATE", "dev", "show", n.Interface)
	if err != nil {
		return StatusFail, err
	}
	state, err := parseDeviceState(string(out))
	if err != nil {
		return StatusFail, err
	}
	return statusFromState(state), nil
}

// CurrentAddress returns the first IPv4 address on the interface.
func (n *NMCLI) CurrentAddress(ctx context.Context) (string, error) {
	out, err := n.nmcli(ctx, "-t", "-f", "IP4.ADDRESS", "dev", "show", n.Interface)
	if err != nil {
		return ZeroAddress, err
	}
	return parseAddress(string(out)), nil
}

// parseSSIDs parses `nmcli -t -f SSID dev wifi list` output.
func parseSSIDs(out string) []string {
	seen := map[string]bool{}
	var ssids []string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		ssid := strings.TrimSpace(strings.ReplaceAll(scanner.Text(), `\:`, ":"))
		if ssid == "" || seen[ssid] {
			continue
		}
		seen[ssid] = true
		ssids = append(ssids, ssid)
	}
	return ssids
}

// parseDeviceState extracts the numeric code from "GENERAL.STATE:100 (connected)".
func parseDeviceState(out string) (int, error) {
	line := strings.TrimSpace(out)
	if i := strings.IndexByte(line, ':'); i >= 0 {
		line = line[i+1:]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, fmt.Errorf("unexpected nmcli state output: %q", out)
	}
	code, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("unexpected nmcli state output: %q", out)
	}
	return code, nil
}

// statusFromState maps NetworkManager NMDeviceState values.
func statusFromState(state int) int {
	switch {
	case state == 100: // activated
		return StatusUp
	case state == 70: // ip-config
		return StatusNoIP
	case state >= 40 && state < 100: // prepare .. secondaries
		return StatusJoin
	case state == 120: // failed
		return StatusFail
	case state == 20: // unavailable
		return StatusNoNet
	default: // unknown, unmanaged, disconnected, deactivating
		return StatusDown
	}
}

// parseAddress parses "IP4.ADDRESS[1]:10.0.0.5/24".
func parseAddress(out string) string {
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		i := strings.IndexByte(line, ':')
		if i < 0 {
			continue
		}
		value := line[i+1:]
		if j := strings.IndexByte(value, '/'); j >= 0 {
			value = value[:j]
		}
		if value != "" {
			return value
		}
	}
	return ZeroAddress
}

// toCIDR converts ip and a dotted netmask to ip/prefix. An empty mask means /24.
func toCIDR(ip, mask string) (string, error) {
	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("invalid address %q", ip)
	}
	if mask == "" {
		return ip + "/24", nil
	}
	m := net.ParseIP(mask).To4()
	if m == nil {
		return "", fmt.Errorf("invalid netmask %q", mask)
	}
	ones, bits := net.IPMask(m).Size()
	if bits == 0 {
		return "", fmt.Errorf("non-canonical netmask %q", mask)
	}
	return fmt.Sprintf("%s/%d", ip, ones), nil
}
