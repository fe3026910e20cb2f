package middleware

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/google/uuid"
)

func TestBrotli_CompressesWhenAccepted(t *testing.T) {
	t.Parallel()

	payload := strings.Repeat(`{"id":"1","full_name":"Ada Lovelace"},`, 50)
	h := Brotli(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprint(len(payload)))
		_, _ = io.WriteString(w, payload)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/employees", nil)
	req.Header.Set("Accept-Encoding", "gzip, br;q=0.9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") != "br" {
		t.Fatalf("expected br encoding, got %q", rec.Header().Get("Content-Encoding"))
	}
	if rec.Header().Get("Content-Length") != "" {
		t.Fatal("Content-Length must be dropped when compressing")
	}

	decoded, err := io.ReadAll(brotli.NewReader(rec.Body))
	if err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if string(decoded) != payload {
		t.Fatalf("payload mismatch")
	}
}

func TestBrotli_PassThrough(t *testing.T) {
	t.Parallel()

	h := Brotli(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "plain")
	}))

	for _, accept := range []string{"", "gzip", "br;q=0"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if accept != "" {
			req.Header.Set("Accept-Encoding", accept)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Header().Get("Content-Encoding") != "" || rec.Body.String() != "plain" {
			t.Fatalf("accept %q: expected uncompressed response", accept)
		}
	}
}

func TestBrotli_SkipsNotModified(t *testing.T) {
	t.Parallel()

	h := Brotli(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "br")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotModified || rec.Header().Get("Content-Encoding") != "" || rec.Body.Len() != 0 {
		t.Fatalf("unexpected 304 handling: code=%d enc=%q len=%d", rec.Code, rec.Header().Get("Content-Encoding"), rec.Body.Len())
	}
}

func TestBrotli_WeakensETagOfEncodedResponse(t *testing.T) {
	t.Parallel()

	h := Brotli(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"abc123"`)
		_, _ = io.WriteString(w, "[]")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/employees", nil)
	req.Header.Set("Accept-Encoding", "br")
	encoded := httptest.NewRecorder()
	h.ServeHTTP(encoded, req)
	if got := encoded.Header().Get("ETag"); got != `W/"abc123"` {
		t.Fatalf("expected weak ETag on br response, got %q", got)
	}

	plain := httptest.NewRecorder()
	h.ServeHTTP(plain, httptest.NewRequest(http.MethodGet, "/api/employees", nil))
	if got := plain.Header().Get("ETag"); got != `"abc123"` {
		t.Fatalf("identity response must keep the strong ETag, got %q", got)
	}
}

func TestAccessLog_AssignsRequestID(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		lines []string
		seen  string
	)
	logf := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	h := AccessLog(logf, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
		_, _ = io.WriteString(w, "hello")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/employees", nil))

	id := rec.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected generated uuid, got %q", id)
	}
	if seen != id {
		t.Fatalf("context request id %q does not match header %q", seen, id)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(lines) != 1 || !strings.Contains(lines[0], "GET /api/employees 418 5 B") || !strings.Contains(lines[0], id) {
		t.Fatalf("unexpected access log: %v", lines)
	}
}

func TestAccessLog_KeepsIncomingRequestID(t *testing.T) {
	t.Parallel()

	incoming := uuid.NewString()
	h := AccessLog(func(string, ...any) {}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != incoming {
		t.Fatalf("expected incoming id %s, got %s", incoming, got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got == "not-a-uuid" {
		t.Fatal("invalid incoming id must be replaced")
	}
}
