package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// DefaultClientIPHeaderPriority is the order in which headers are consulted
// before falling back to the connection's peer address.
var DefaultClientIPHeaderPriority = []string{"CF-Connecting-IP", "X-Real-IP", "X-Forwarded-For"}

// ClientIP resolves the caller's address for rate-limiter keys by walking
// priority — a list of header names tried in order — before falling back to
// r.RemoteAddr. Encoding the order as data rather than an if/else chain
// keeps the priority itself part of the contract (see spec.md §9), and lets
// deployments override it via config.ClientIPHeaderPriority without a code
// change.
func ClientIP(r *http.Request, priority []string) string {
	for _, header := range priority {
		v := r.Header.Get(header)
		if v == "" {
			continue
		}
		if header == "X-Forwarded-For" {
			// Only the first (left-most, originating client) entry is
			// trusted; subsequent entries may have been appended by
			// untrusted intermediaries.
			if first, _, found := strings.Cut(v, ","); found || first != "" {
				v = strings.TrimSpace(first)
			}
		}
		if v != "" {
			return v
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
