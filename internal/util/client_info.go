package util

import (
	"auth-session-server/internal/model"
	"net"
	"net/http"
	"strings"
)

// Заголовки гео-данных, которые выставляют CDN перед сервисом
var (
	countryHeaders = []string{"CF-IPCountry", "X-Vercel-IP-Country", "X-Country-Code"}
	cityHeaders    = []string{"X-Vercel-IP-City", "X-City"}
)

// ClientInfoFromRequest : IP, User-Agent и грубая геолокация запроса.
// RemoteAddr уже переписан chi middleware.RealIP, если прокси прислал X-Forwarded-For.
func ClientInfoFromRequest(r *http.Request) model.ClientInfo {
	return model.ClientInfo{
		IPAddress: remoteIP(r.RemoteAddr),
		UserAgent: r.UserAgent(),
		Country:   firstHeader(r, countryHeaders),
		City:      firstHeader(r, cityHeaders),
	}
}

func remoteIP(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func firstHeader(r *http.Request, names []string) string {
	for _, name := range names {
		if v := strings.TrimSpace(r.Header.Get(name)); v != "" && v != "XX" {
			return v
		}
	}
	return ""
}
