package v1

import (
	"net/netip"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// proxyHeaders are consulted in order before the Forwarded header and the
// connection address. Each may carry a comma separated chain.
var proxyHeaders = []string{
	"X-Forwarded-For",
	"X-Real-IP",
	"CF-Connecting-IP",
	"True-Client-IP",
}

// getClientIP returns the visitor address used for the geo lookup: the first
// public address of the first header that has one, with IPv4 preferred within
// a header. An empty string means no public address is known.
func getClientIP(c *fiber.Ctx) string {
	for _, header := range proxyHeaders {
		if value := c.Get(header); value != "" {
			if addr := firstPublicAddr(strings.Split(value, ",")); addr.IsValid() {
				return addr.String()
			}
		}
	}

	if forwarded := c.Get("Forwarded"); forwarded != "" {
		if addr := firstPublicAddr(forwardedFor(forwarded)); addr.IsValid() {
			return addr.String()
		}
	}

	if addr := firstPublicAddr([]string{c.Context().RemoteAddr().String()}); addr.IsValid() {
		return addr.String()
	}
	return ""
}

// firstPublicAddr returns the first public IPv4 address among values, or
// the first public IPv6 address when there is none. The zero Addr means
// nothing usable was found.
func firstPublicAddr(values []string) netip.Addr {
	var ipv6 netip.Addr
	for _, raw := range values {
		addr, ok := parseAddr(raw)
		if !ok || !isPublic(addr) {
			continue
		}
		if addr.Is4() {
			return addr
		}
		if !ipv6.IsValid() {
			ipv6 = addr
		}
	}
	return ipv6
}

// isPublic rejects loopback, link-local, unspecified, multicast and
// RFC 1918 / RFC 4193 ranges.
func isPublic(addr netip.Addr) bool {
	return addr.IsGlobalUnicast() && !addr.IsPrivate()
}

// parseAddr accepts a bare address, an address with a port, a bracketed IPv6
// literal and quoted forms of each. Zones are dropped and IPv4-mapped IPv6
// addresses are unmapped.
func parseAddr(raw string) (netip.Addr, bool) {
	clean := strings.Trim(strings.TrimSpace(raw), `"`)
	if clean == "" {
		return netip.Addr{}, false
	}

	if addrPort, err := netip.ParseAddrPort(clean); err == nil {
		return addrPort.Addr().Unmap().WithZone(""), true
	}

	addr, err := netip.ParseAddr(strings.TrimSuffix(strings.TrimPrefix(clean, "["), "]"))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap().WithZone(""), true
}

// forwardedFor extracts the for= values of an RFC 7239 Forwarded header.
func forwardedFor(header string) []string {
	var values []string
	for _, element := range strings.Split(header, ",") {
		for _, pair := range strings.Split(element, ";") {
			key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
			if found && strings.EqualFold(key, "for") {
				values = append(values, value)
			}
		}
	}
	return values
}
