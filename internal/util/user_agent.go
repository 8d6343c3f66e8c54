package util

import (
	"auth-session-server/internal/model"
	"regexp"
	"strings"
)

type browserSignature struct {
	name    string
	pattern *regexp.Regexp
}

type osSignature struct {
	name    string
	pattern *regexp.Regexp
	match   func(ua string) bool
}

// Порядок важен: Edge и Chrome содержат "Safari", iOS содержит "Mac OS X"
var browserSignatures = []browserSignature{
	{name: "Edge", pattern: regexp.MustCompile(`(?i)edg(?:e|a|ios)?/([\d.]+)`)},
	{name: "Firefox", pattern: regexp.MustCompile(`(?i)(?:firefox|fxios)/([\d.]+)`)},
	{name: "Chrome", pattern: regexp.MustCompile(`(?i)(?:chrome|crios)/([\d.]+)`)},
	{name: "Safari", pattern: regexp.MustCompile(`(?i)version/([\d.]+).*safari/`)},
	{name: "Safari", pattern: regexp.MustCompile(`(?i)safari/()`)},
}

var osSignatures = []osSignature{
	{name: "iOS", pattern: regexp.MustCompile(`(?i)(?:iphone|cpu) os (\d+(?:_\d+)*)`), match: containsAny("iphone", "ipad", "ipod")},
	{name: "Android", pattern: regexp.MustCompile(`(?i)android ([\d.]+)`), match: containsAny("android")},
	{name: "Windows", pattern: regexp.MustCompile(`(?i)windows nt ([\d.]+)`), match: containsAny("windows")},
	{name: "macOS", pattern: regexp.MustCompile(`(?i)mac os x (\d+(?:[_.]\d+)*)`), match: containsAny("macintosh", "mac os x")},
	{name: "Linux", pattern: nil, match: containsAny("linux", "x11")},
}

// ParseUserAgent : разбор User-Agent по таблице сигнатур.
// Функция тотальная: на неизвестной строке все поля остаются nil.
func ParseUserAgent(userAgent string) model.DeviceInfo {
	var info model.DeviceInfo
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	if ua == "" {
		return info
	}

	info.DeviceType = detectDeviceType(ua)
	info.DeviceName = detectDeviceName(ua)

	for _, sig := range browserSignatures {
		if m := sig.pattern.FindStringSubmatch(userAgent); m != nil {
			info.Browser = ptr(sig.name)
			info.BrowserVersion = nonEmpty(m[1])
			break
		}
	}

	for _, sig := range osSignatures {
		if !sig.match(ua) {
			continue
		}
		info.OS = ptr(sig.name)
		if sig.pattern != nil {
			if m := sig.pattern.FindStringSubmatch(userAgent); m != nil {
				info.OSVersion = nonEmpty(strings.ReplaceAll(m[1], "_", "."))
			}
		}
		break
	}

	return info
}

func detectDeviceType(ua string) *string {
	switch {
	case strings.Contains(ua, "ipad") || strings.Contains(ua, "tablet") ||
		(strings.Contains(ua, "android") && !strings.Contains(ua, "mobile")):
		return ptr(model.DeviceTypeTablet)
	case strings.Contains(ua, "mobile") || strings.Contains(ua, "iphone") ||
		strings.Contains(ua, "ipod") || strings.Contains(ua, "android"):
		return ptr(model.DeviceTypeMobile)
	case strings.Contains(ua, "windows") || strings.Contains(ua, "macintosh") ||
		strings.Contains(ua, "x11") || strings.Contains(ua, "linux"):
		return ptr(model.DeviceTypeDesktop)
	}
	return nil
}

func detectDeviceName(ua string) *string {
	switch {
	case strings.Contains(ua, "iphone"):
		return ptr("iPhone")
	case strings.Contains(ua, "ipad"):
		return ptr("iPad")
	case strings.Contains(ua, "ipod"):
		return ptr("iPod")
	case strings.Contains(ua, "macintosh"):
		return ptr("Mac")
	}
	return nil
}

func containsAny(needles ...string) func(string) bool {
	return func(ua string) bool {
		for _, n := range needles {
			if strings.Contains(ua, n) {
				return true
			}
		}
		return false
	}
}

func ptr(s string) *string { return &s }

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
