package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/qrforge/internal/config"
)

func TestTrustedRealIP(t *testing.T) {
	mw := TrustedRealIP([]string{"10.0.0.0/8", "192.168.1.5", "not-an-ip"})

	tests := []struct {
		name       string
		remoteAddr string
		realIP     string
		forwarded  string
		want       string
	}{
		{"trusted cidr uses X-Real-IP", "10.1.2.3:5555", "203.0.113.7", "", "203.0.113.7"},
		{"trusted single ip uses first XFF hop", "192.168.1.5:80", "", "198.51.100.1, 10.0.0.1", "198.51.100.1"},
		{"untrusted ignores headers", "203.0.113.9:1234", "1.2.3.4", "", "203.0.113.9:1234"},
		{"invalid header keeps remote", "10.1.2.3:5555", "garbage", "", "10.1.2.3:5555"},
		{"no headers keeps remote", "10.1.2.3:5555", "", "", "10.1.2.3:5555"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"203.0.113.9:1234", "203.0.113.9"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"198.51.100.2", "198.51.100.2"},
		{"pipe", "pipe"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remote
		if got := ClientIP(req); got != tt.want {
			t.Errorf("ClientIP(%q) = %q, want %q", tt.remote, got, tt.want)
		}
	}
}

func TestAPIKeyAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name     string
		cfg      config.SecurityConfig
		header   string
		value    string
		want     int
		wantCode string
	}{
		{"disabled passes", config.SecurityConfig{}, "", "", http.StatusTeapot, ""},
		{"missing key", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, "", "", http.StatusUnauthorized, "AUTH001"},
		{"wrong key", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, "X-API-Key", "nope", http.StatusForbidden, "AUTH002"},
		{"valid header", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1", "k2"}}, "X-API-Key", "k2", http.StatusTeapot, ""},
		{"valid bearer", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, "Authorization", "Bearer k1", http.StatusTeapot, ""},
		{"no keys configured", config.SecurityConfig{RequireAPIKey: true}, "X-API-Key", "", http.StatusUnauthorized, "AUTH001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			h := APIKeyAuth(&cfg)(ok)

			req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
			if tt.header != "" && tt.value != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.wantCode == "" {
				return
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["code"] != tt.wantCode {
				t.Errorf("code = %q, want %q", body["code"], tt.wantCode)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := chimw.RequestID(Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("missing"))
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/templates/9", nil)
	req.RemoteAddr = "203.0.113.9:1234"
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log is not json: %v (%s)", err, buf.String())
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", entry["level"])
	}
	if entry["status"] != float64(404) || entry["bytes"] != float64(7) {
		t.Errorf("status/bytes = %v/%v", entry["status"], entry["bytes"])
	}
	if entry["ip"] != "203.0.113.9" {
		t.Errorf("ip = %v", entry["ip"])
	}
	if entry["request_id"] == nil || entry["request_id"] == "" {
		t.Error("request_id missing")
	}
}
