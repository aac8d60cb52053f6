package kinet

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	clientdist "github.com/kinet-dev/kinet/client/dist"
)

func TestClientRuntimeServed(t *testing.T) {
	app := New(Config{})

	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/_kinet/client.js", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("GET /_kinet/client.js status = %d, want %d", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/javascript") {
		t.Errorf("Content-Type = %q, want application/javascript", ct)
	}
	if rr.Header().Get("ETag") == "" {
		t.Error("expected ETag header")
	}
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if cc := rr.Header().Get("Cache-Control"); !strings.Contains(cc, "must-revalidate") {
		t.Errorf("Cache-Control = %q, want revalidation policy", cc)
	}
	if !bytes.Equal(rr.Body.Bytes(), clientdist.KinetJS) {
		t.Error("body does not match embedded client runtime")
	}
}

func TestClientRuntimeDevModeDisablesCaching(t *testing.T) {
	app := New(Config{DevMode: true})

	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/_kinet/client.js", nil))

	if cc := rr.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q, want %q", cc, "no-store")
	}
}

func TestClientRuntimeETagRevalidation(t *testing.T) {
	app := New(Config{})

	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/_kinet/client.js", nil))
	etag := rr.Header().Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	req := httptest.NewRequest(http.MethodGet, "/_kinet/client.js", nil)
	req.Header.Set("If-None-Match", etag)
	rr = httptest.NewRecorder()
	app.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotModified {
		t.Errorf("conditional GET status = %d, want %d", rr.Code, http.StatusNotModified)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("expected empty body on 304, got %d bytes", rr.Body.Len())
	}
}

func TestClientRuntimeHead(t *testing.T) {
	app := New(Config{})

	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, httptest.NewRequest(http.MethodHead, "/_kinet/client.js", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("HEAD /_kinet/client.js status = %d, want %d", rr.Code, http.StatusOK)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("expected empty body on HEAD, got %d bytes", rr.Body.Len())
	}
	if rr.Header().Get("ETag") == "" {
		t.Error("expected ETag header")
	}
}

func TestClientRuntimeMethodNotAllowed(t *testing.T) {
	app := New(Config{})

	rr := httptest.NewRecorder()
	app.serveClient(rr, httptest.NewRequest(http.MethodPost, "/_kinet/client.js", nil))

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST status = %d, want %d", rr.Code, http.StatusMethodNotAllowed)
	}
	if got := rr.Header().Get("Allow"); got != "GET, HEAD" {
		t.Errorf("Allow = %q, want %q", got, "GET, HEAD")
	}
}

func TestEtagMatches(t *testing.T) {
	tests := []struct {
		name   string
		header string
		etag   string
		want   bool
	}{
		{"empty header", "", `"abc"`, false},
		{"exact match", `"abc"`, `"abc"`, true},
		{"mismatch", `"def"`, `"abc"`, false},
		{"in list", `"def", "abc"`, `"abc"`, true},
		{"weak match", `W/"abc"`, `"abc"`, true},
		{"weak in list", `"def", W/"abc"`, `"abc"`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := etagMatches(tt.header, tt.etag); got != tt.want {
				t.Errorf("etagMatches(%q, %q) = %v, want %v", tt.header, tt.etag, got, tt.want)
			}
		})
	}
}
