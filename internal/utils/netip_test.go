package utils

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{"remote addr", "203.0.113.7:4242", nil, false, "203.0.113.7"},
		{"ipv6 remote", "[2001:db8::1]:443", nil, false, "2001:db8::1"},
		{"headers ignored without trust", "203.0.113.7:4242", map[string]string{"X-Forwarded-For": "198.51.100.1"}, false, "203.0.113.7"},
		{"cloudflare first", "127.0.0.1:1", map[string]string{"CF-Connecting-IP": "198.51.100.9", "X-Forwarded-For": "198.51.100.1"}, true, "198.51.100.9"},
		{"left-most forwarded", "127.0.0.1:1", map[string]string{"X-Forwarded-For": " 198.51.100.1 , 10.0.0.1"}, true, "198.51.100.1"},
		{"real ip", "127.0.0.1:1", map[string]string{"X-Real-IP": "198.51.100.2"}, true, "198.51.100.2"},
		{"no headers with trust", "127.0.0.1:1", nil, true, "127.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{"10.0.0.0/8", "192.0.2.5", " ", "not-an-ip", "2001:db8::/32"})
	if m.IsEmpty() {
		t.Fatal("expected matcher to hold entries")
	}

	tests := []struct {
		ip   string
		want bool
	}{
		{"10.1.2.3", true},
		{"192.0.2.5", true},
		{"192.0.2.6", false},
		{"::ffff:10.0.0.1", true},
		{"2001:db8::42", true},
		{"garbage", false},
	}
	for _, tt := range tests {
		if got := m.Allow(tt.ip); got != tt.want {
			t.Errorf("Allow(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}

	if !NewIPMatcher(nil).IsEmpty() {
		t.Error("expected empty matcher")
	}
}
