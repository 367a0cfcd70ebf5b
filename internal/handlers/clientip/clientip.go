package clientip

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

const Unknown = "unknown"

// Client address as reported by proxy headers
// X-Forwarded-For first entry wins, then X-Real-IP, otherwise Unknown
// Headers are client controlled: good enough for audit and logs, never for throttling
func FromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	return Unknown
}

// Peer address of the connection without port
func Peer(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Resolves the address requests are throttled by
// Proxy headers are looked at only when the peer is one of trusted proxies
type Resolver struct {
	trusted []netip.Prefix
}

// Accepts CIDRs ("10.0.0.0/8") and single addresses ("127.0.0.1")
// No proxies means the peer address is always used
func NewResolver(proxies []string) (*Resolver, error) {
	trusted := make([]netip.Prefix, 0, len(proxies))
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if !strings.Contains(p, "/") {
			addr, err := netip.ParseAddr(p)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", p, err)
			}
			trusted = append(trusted, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
			continue
		}

		prefix, err := netip.ParsePrefix(p)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", p, err)
		}
		trusted = append(trusted, prefix.Masked())
	}

	return &Resolver{trusted: trusted}, nil
}

// Key walks X-Forwarded-For from the right, skipping trusted hops, and returns the first untrusted address
// Entries left of it were written by the client and are ignored
func (rs *Resolver) Key(r *http.Request) string {
	peer := Peer(r)
	if !rs.isTrusted(peer) {
		return peer
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if _, err := netip.ParseAddr(hop); err != nil {
			// Garbage in the chain, nothing left of it can be trusted
			return peer
		}
		if !rs.isTrusted(hop) {
			return hop
		}
	}

	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		if _, err := netip.ParseAddr(ip); err == nil {
			return ip
		}
	}

	return peer
}

func (rs *Resolver) isTrusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()

	for _, p := range rs.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
