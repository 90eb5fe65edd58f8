package pkg

import (
	"net"
	"net/http"
	"strings"
)

// ReadUserIP returns the client address, preferring proxy headers
// (the service runs behind nginx) over the connection remote address.
func ReadUserIP(r *http.Request) string {
	ipAddr := r.Header.Get("X-Real-Ip")
	if ipAddr == "" {
		// X-Forwarded-For: client, proxy1, proxy2
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			ipAddr = strings.TrimSpace(strings.Split(fwd, ",")[0])
		}
	}
	if ipAddr == "" {
		ipAddr = r.RemoteAddr
	}

	if host, _, err := net.SplitHostPort(ipAddr); err == nil {
		return host
	}
	return ipAddr
}
