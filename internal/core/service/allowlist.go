package service

import (
	"net"
	"strings"

	"github.com/yndnr/qipc-go/internal/core/domain"
)

// Allowlist is a set of networks peers must fall in. The zero value permits
// everyone.
type Allowlist []*net.IPNet

// ParseAllowlist parses IP and CIDR entries. A bare IP becomes a host
// network. Any invalid entry fails the whole list.
func ParseAllowlist(entries []string) (Allowlist, error) {
	var list Allowlist
	for _, entry := range entries {
		n, err := parseAllowEntry(entry)
		if err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, nil
}

func parseAllowEntry(entry string) (*net.IPNet, error) {
	entry = strings.TrimSpace(entry)
	if strings.Contains(entry, "/") {
		_, n, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, domain.ErrPeerNotAllowed.Detailf("invalid allowlist entry %q", entry).WithCause(err)
		}
		return n, nil
	}
	ip := net.ParseIP(entry)
	if ip == nil {
		return nil, domain.ErrPeerNotAllowed.Detailf("invalid allowlist entry %q", entry)
	}
	bits := 8 * net.IPv6len
	if ip4 := ip.To4(); ip4 != nil {
		ip, bits = ip4, 8*net.IPv4len
	}
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}, nil
}

// Permits reports whether ip may connect. A nil ip is refused unless the
// list is empty.
func (a Allowlist) Permits(ip net.IP) bool {
	if len(a) == 0 {
		return true
	}
	if ip == nil {
		return false
	}
	for _, n := range a {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
