package middleware

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/xy-planning-network/acrsample"
)

const unknownIP = "0.0.0.0"

// An ipRange is a range of IP addresses.
type ipRange struct {
	start net.IP
	end   net.IP
}

// isInRange checks whether the address is within the range.
func (r ipRange) isInRange(ipAddress net.IP) bool {
	return bytes.Compare(ipAddress, r.start) >= 0 && bytes.Compare(ipAddress, r.end) < 0
}

// IANA defined IPv4 non-public ranges
var privateRanges = []ipRange{
	{start: net.ParseIP("10.0.0.0"), end: net.ParseIP("10.255.255.255")},
	{start: net.ParseIP("100.64.0.0"), end: net.ParseIP("100.127.255.255")},
	{start: net.ParseIP("172.16.0.0"), end: net.ParseIP("172.31.255.255")},
	{start: net.ParseIP("192.0.0.0"), end: net.ParseIP("192.0.0.255")},
	{start: net.ParseIP("192.168.0.0"), end: net.ParseIP("192.168.255.255")},
	{start: net.ParseIP("198.18.0.0"), end: net.ParseIP("198.19.255.255")},
}

// TrustedProxies lists the networks whose forwarding headers are believed.
type TrustedProxies []*net.IPNet

// ParseTrustedProxies reads a comma separated list of IP addresses and CIDR blocks.
// A bare address is treated as a single host network.
func ParseTrustedProxies(list string) (TrustedProxies, error) {
	tp := make(TrustedProxies, 0)
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("%w: trusted proxy %q", acrsample.ErrNotValid, entry)
			}

			bits := 128
			if ip4 := ip.To4(); ip4 != nil {
				ip, bits = ip4, 32
			}

			tp = append(tp, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}

		_, n, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("%w: trusted proxy %q: %s", acrsample.ErrNotValid, entry, err)
		}

		tp = append(tp, n)
	}

	return tp, nil
}

// Contains reports whether ip falls in one of the trusted networks.
func (tp TrustedProxies) Contains(ip net.IP) bool {
	if ip == nil {
		return false
	}

	for _, n := range tp {
		if n.Contains(ip) {
			return true
		}
	}

	return false
}

// ClientIP resolves the address of the client making the request.
//
// The forwarding headers are only consulted when the connection comes from a trusted proxy;
// otherwise the connection's own address is the client's.
func (tp TrustedProxies) ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		return unknownIP
	}

	if !tp.Contains(net.ParseIP(host)) {
		return host
	}

	if ip := tp.forwarded(r.Header); ip != unknownIP {
		return ip
	}

	return host
}

// InjectIPAddress grabs the IP address of the request
// and promotes it to *http.Request.Context under acrsample.IpAddrKey.
//
// Forwarding headers are honored only from trusted proxies.
func InjectIPAddress(trusted TrustedProxies) Adapter {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), acrsample.IpAddrKey, trusted.ClientIP(r))
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIP returns the IP address stashed by InjectIPAddress
// or, failing that, the address of the connection.
func RequestIP(r *http.Request) string {
	if ip, ok := r.Context().Value(acrsample.IpAddrKey).(string); ok && ip != "" {
		return ip
	}

	return TrustedProxies(nil).ClientIP(r)
}

// GetIPAddress parses "X-Forwarded-For" and "X-Real-Ip" headers for the IP address
// from the request.
//
// GetIPAddress skips addresses from non-public ranges.
// Only call it for requests known to come through a proxy.
func GetIPAddress(hm http.Header) string { return TrustedProxies(nil).forwarded(hm) }

// forwarded walks the forwarding headers for the first public address
// that is not itself a trusted proxy.
func (tp TrustedProxies) forwarded(hm http.Header) string {
	for _, h := range []string{"X-Forwarded-For", "X-Real-Ip"} {
		addresses := strings.Split(hm.Get(h), ",")
		// march from right to left until we get a public address
		// that will be the address right before our proxy.
		for i := len(addresses) - 1; i >= 0; i-- {
			ip := strings.TrimSpace(addresses[i])
			realIP := net.ParseIP(ip)
			if !realIP.IsGlobalUnicast() || isPrivateSubnet(realIP) || tp.Contains(realIP) {
				continue
			}

			return ip
		}
	}

	return unknownIP
}

// isPrivateSubnet checks whether the IP address is in a private subnet.
//
// Only IPv4 subnets are supported.
func isPrivateSubnet(ipAddress net.IP) bool {
	if ipCheck := ipAddress.To4(); ipCheck != nil {
		for _, r := range privateRanges {
			if r.isInRange(ipAddress) {
				return true
			}
		}
	}

	return false
}
