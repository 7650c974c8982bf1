// Package clientip derives the caller's address for rate limiting and logs.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// RealClientIP returns the client IP from r.RemoteAddr in canonical form.
// Proxy headers are ignored; the API is served without a CDN in front.
func RealClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	host = strings.TrimSpace(host)
	if i := strings.IndexByte(host, '%'); i >= 0 {
		host = host[:i]
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String()
	}
	return host
}

// LimiterKey is the address a rate limiter should count against. IPv6
// clients are grouped by their /64, since one host usually owns the prefix.
func LimiterKey(r *http.Request) string {
	ip := net.ParseIP(RealClientIP(r))
	if ip == nil {
		return RealClientIP(r)
	}
	if ip.To4() != nil {
		return ip.String()
	}
	return ip.Mask(net.CIDRMask(64, 128)).String() + "/64"
}
