package clientip

import (
	"net"
	"net/http"
	"strings"
)

// DefaultHeaders lists the common proxy headers in a sensible trust order.
// X-Forwarded-For is read left to right and the first valid address wins.
var DefaultHeaders = []string{
	"CF-Connecting-IP",
	"DO-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// Resolver extracts the requester address from a request.
type Resolver struct {
	headers []string
}

// New returns a Resolver trusting the given headers in order. With no
// headers only the connection address is used, which is the right choice
// when the service is reachable without a proxy in front of it.
func New(headers ...string) *Resolver {
	return &Resolver{headers: headers}
}

// Resolve returns the normalized client IP or "" if none is valid.
func (res *Resolver) Resolve(r *http.Request) string {
	for _, h := range res.headers {
		v := r.Header.Get(h)
		if v == "" {
			continue
		}
		for candidate := range strings.SplitSeq(v, ",") {
			if ip := parseIP(candidate); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return ""
	}
	return ip.String()
}
