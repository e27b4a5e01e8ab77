package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serve(cfg ServerConfig, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rr, req)
	return rr
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestIsAllowedOrigin(t *testing.T) {
	allowed := []string{
		"http://localhost:3000",
		"http://localhost",
		"https://localhost:8443",
		"http://127.0.0.1:8797",
		"http://127.0.0.1",
		"http://[::1]:5173",
	}
	for _, origin := range allowed {
		if !isAllowedOrigin(origin) {
			t.Errorf("isAllowedOrigin(%q) = false, want true", origin)
		}
	}

	denied := []string{
		"https://evil.com",
		"http://localhost.evil.com",
		"http://192.168.1.1:3000",
		"",
		"null",
		"ftp://localhost:3000",
		"http://localhost:not-a-port",
		"http://localhost:3000/path",
		"http://user@localhost:3000",
	}
	for _, origin := range denied {
		if isAllowedOrigin(origin) {
			t.Errorf("isAllowedOrigin(%q) = true, want false", origin)
		}
	}
}

func TestIsLoopbackRemoteAddr(t *testing.T) {
	cases := []struct {
		addr string
		want bool
	}{
		{"127.0.0.1:12345", true},
		{"[::1]:12345", true},
		{"::1", true},
		{"[::1]", true},
		{"127.0.0.1", true},
		{"8.8.8.8:12345", false},
		{"192.168.1.1:8080", false},
		{"not-an-ip:1234", false},
		{"", false},
		{"garbage", false},
	}
	for _, tc := range cases {
		if got := isLoopbackRemoteAddr(tc.addr); got != tc.want {
			t.Errorf("isLoopbackRemoteAddr(%q) = %v, want %v", tc.addr, got, tc.want)
		}
	}
}

func TestCORSAllowlist_AllowedOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	rr.Header().Set("Vary", "Accept-Encoding")

	CORSAllowlist()(okHandler()).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("ACAO = %q, want %q", got, "http://localhost:3000")
	}
	vary := strings.Join(rr.Header().Values("Vary"), ",")
	if !strings.Contains(vary, "Accept-Encoding") || !strings.Contains(vary, "Origin") {
		t.Errorf("Vary = %q, want Accept-Encoding and Origin", vary)
	}
}

func TestCORSAllowlist_DeniedOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.com")
	rr := httptest.NewRecorder()

	CORSAllowlist()(okHandler()).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (request still served, just no ACAO)", rr.Code, http.StatusOK)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("ACAO = %q, want empty for denied origin", got)
	}
}

func TestCORSAllowlist_Preflight(t *testing.T) {
	handler := CORSAllowlist()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called for preflight")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/saves", nil)
	req.Header.Set("Origin", "http://127.0.0.1:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNoContent)
	}
	for _, h := range []string{"Range", "Authorization", "Content-Type"} {
		if !strings.Contains(rr.Header().Get("Access-Control-Allow-Headers"), h) {
			t.Errorf("Access-Control-Allow-Headers missing %q", h)
		}
	}
	for _, h := range []string{"Content-Range", "Accept-Ranges"} {
		if !strings.Contains(rr.Header().Get("Access-Control-Expose-Headers"), h) {
			t.Errorf("Access-Control-Expose-Headers missing %q", h)
		}
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Allow-Methods"), "PUT") {
		t.Error("Access-Control-Allow-Methods missing PUT")
	}

	req = httptest.NewRequest(http.MethodOptions, "/saves", nil)
	req.Header.Set("Origin", "https://evil.com")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("denied preflight: status = %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestLoopbackGuard(t *testing.T) {
	called := false
	handler := LoopbackGuard()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/playback/file?file_id=x", nil)
	req.RemoteAddr = "8.8.8.8:12345"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if called || rr.Code != http.StatusForbidden {
		t.Fatalf("non-loopback: called = %v status = %d", called, rr.Code)
	}
	if code := decodeJSONBody(t, rr)["code"]; code != "FORBIDDEN" {
		t.Errorf("error code = %v, want FORBIDDEN", code)
	}

	req.RemoteAddr = "[::1]:12345"
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if !called || rr.Code != http.StatusOK {
		t.Fatalf("loopback: called = %v status = %d", called, rr.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name   string
		stored string
		header string
		want   int
	}{
		{"valid", "secret", "Bearer secret", http.StatusOK},
		{"missing header", "secret", "", http.StatusUnauthorized},
		{"wrong scheme", "secret", "Basic secret", http.StatusUnauthorized},
		{"wrong token", "secret", "Bearer other", http.StatusUnauthorized},
		{"no stored token", "", "Bearer secret", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := AuthMiddleware(fakeTokens{token: tt.stored}, logger)(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/status", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(RequestIDKey).(string)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(seen) != 8 || rr.Header().Get("X-Request-ID") != seen {
		t.Fatalf("generated id = %q header = %q", seen, rr.Header().Get("X-Request-ID"))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Framecut-Request-Id", "from-client")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "from-client" {
		t.Errorf("request id = %q, want the client's", seen)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := RecoveryMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(context.Background())
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
}

func TestHEAD_PlaybackFile_NoBody(t *testing.T) {
	f := newFixture()
	server := httptest.NewServer(NewRouter(f.cfg))
	defer server.Close()

	resp, err := http.Head(server.URL + "/playback/file?file_id=file-1")
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) != 0 {
		t.Errorf("HEAD response body length = %d, want 0", len(body))
	}
}

func TestHealthRoute_CORS_Integration(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")

	rr := serve(newFixture().cfg, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("ACAO = %q, want %q", got, "http://localhost:3000")
	}
}
