package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		name           string
		ua             string
		deviceType     string
		deviceName     string
		browser        string
		browserVersion string
		os             string
		osVersion      string
	}{
		{
			name:           "iPhone Safari",
			ua:             "Mozilla/5.0 (iPhone; CPU iPhone OS 17_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Mobile/15E148 Safari/604.1",
			deviceType:     "mobile",
			deviceName:     "iPhone",
			browser:        "Safari",
			browserVersion: "17.2",
			os:             "iOS",
			osVersion:      "17.2",
		},
		{
			name:           "iPhone Safari without version token",
			ua:             "Mozilla/5.0 (iPhone; CPU iPhone OS 17_2 like Mac OS X) ... Safari/604.1",
			deviceType:     "mobile",
			deviceName:     "iPhone",
			browser:        "Safari",
			browserVersion: "<nil>",
			os:             "iOS",
			osVersion:      "17.2",
		},
		{
			name:           "iPad",
			ua:             "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1",
			deviceType:     "tablet",
			deviceName:     "iPad",
			browser:        "Safari",
			browserVersion: "16.6",
			os:             "iOS",
			osVersion:      "16.6",
		},
		{
			name:           "Windows Edge",
			ua:             "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.2210.91",
			deviceType:     "desktop",
			deviceName:     "<nil>",
			browser:        "Edge",
			browserVersion: "120.0.2210.91",
			os:             "Windows",
			osVersion:      "10.0",
		},
		{
			name:           "macOS Chrome",
			ua:             "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			deviceType:     "desktop",
			deviceName:     "Mac",
			browser:        "Chrome",
			browserVersion: "121.0.0.0",
			os:             "macOS",
			osVersion:      "10.15.7",
		},
		{
			name:           "Android Chrome phone",
			ua:             "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.6099.144 Mobile Safari/537.36",
			deviceType:     "mobile",
			deviceName:     "<nil>",
			browser:        "Chrome",
			browserVersion: "120.0.6099.144",
			os:             "Android",
			osVersion:      "14",
		},
		{
			name:           "Android tablet",
			ua:             "Mozilla/5.0 (Linux; Android 13; SM-X700) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			deviceType:     "tablet",
			deviceName:     "<nil>",
			browser:        "Chrome",
			browserVersion: "120.0.0.0",
			os:             "Android",
			osVersion:      "13",
		},
		{
			name:           "Linux Firefox",
			ua:             "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			deviceType:     "desktop",
			deviceName:     "<nil>",
			browser:        "Firefox",
			browserVersion: "121.0",
			os:             "Linux",
			osVersion:      "<nil>",
		},
		{
			name:           "unknown client",
			ua:             "curl/8.4.0",
			deviceType:     "<nil>",
			deviceName:     "<nil>",
			browser:        "<nil>",
			browserVersion: "<nil>",
			os:             "<nil>",
			osVersion:      "<nil>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseUserAgent(tt.ua)

			assert.Equal(t, tt.deviceType, deref(info.DeviceType))
			assert.Equal(t, tt.deviceName, deref(info.DeviceName))
			assert.Equal(t, tt.browser, deref(info.Browser))
			assert.Equal(t, tt.browserVersion, deref(info.BrowserVersion))
			assert.Equal(t, tt.os, deref(info.OS))
			assert.Equal(t, tt.osVersion, deref(info.OSVersion))
		})
	}
}

func TestParseUserAgent_NeverPanics(t *testing.T) {
	inputs := []string{"", "   ", "\x00\xff", "Safari/", "Version/ Safari/", "android", "(((("}
	for _, in := range inputs {
		assert.NotPanics(t, func() { ParseUserAgent(in) }, in)
	}

	info := ParseUserAgent("")
	assert.Nil(t, info.DeviceType)
	assert.Nil(t, info.Browser)
	assert.Nil(t, info.OS)
}
