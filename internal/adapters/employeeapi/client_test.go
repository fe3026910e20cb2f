package employeeapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/ogurasousui/talent-explorer/internal/core/employee"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Method != http.MethodGet || r.URL.Path != EmployeesPath || r.URL.RawQuery != "" {
			http.Error(w, "unexpected request", http.StatusTeapot)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestClient_FetchEmployees_Success(t *testing.T) {
	t.Parallel()

	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"full_name":"Ada Lovelace","email":"ada@x.com","location":"London","current_position":"Engineer","department":"R&D"},
			{"department":"Navy","current_position":"Admiral","location":"Arlington","email":"grace@x.com","full_name":"Grace Hopper","id":"6f1c"}]`))
	})

	got, err := NewClient(srv.URL + "/").FetchEmployees(context.Background())
	if err != nil {
		t.Fatalf("FetchEmployees returned error: %v", err)
	}

	want := []employee.Employee{
		{ID: "1", FullName: "Ada Lovelace", Email: "ada@x.com", Location: "London", CurrentPosition: "Engineer", Department: "R&D"},
		{ID: "6f1c", FullName: "Grace Hopper", Email: "grace@x.com", Location: "Arlington", CurrentPosition: "Admiral", Department: "Navy"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d employees, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d: want %+v got %+v", i, want[i], got[i])
		}
	}
	if n := atomic.LoadInt32(calls); n != 1 {
		t.Fatalf("expected exactly one request, got %d", n)
	}
}

func TestClient_FetchEmployees_EmptyArray(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(" [] \n"))
	})

	got, err := NewClient(srv.URL).FetchEmployees(context.Background())
	if err != nil {
		t.Fatalf("empty array must not be an error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestClient_FetchEmployees_Brotli(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		bw := brotli.NewWriter(w)
		_, _ = bw.Write([]byte(`[{"id":"a","full_name":"Ada Lovelace"}]`))
		_ = bw.Close()
	})

	got, err := NewClient(srv.URL).FetchEmployees(context.Background())
	if err != nil {
		t.Fatalf("FetchEmployees returned error: %v", err)
	}
	if len(got) != 1 || got[0].FullName != "Ada Lovelace" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestClient_FetchEmployees_Failures(t *testing.T) {
	t.Parallel()

	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
		"not found": func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		},
		"malformed json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"id":1,`))
		},
		"null body": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`null`))
		},
		"object body": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"employees":[]}`))
		},
		"missing id": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"full_name":"Ada"}]`))
		},
		"object id": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"id":{"v":1},"full_name":"Ada"}]`))
		},
		"unknown encoding": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Encoding", "zstd")
			_, _ = w.Write([]byte(`[]`))
		},
	}

	for name, handler := range cases {
		handler := handler
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv, calls := newTestServer(t, handler)
			got, err := NewClient(srv.URL).FetchEmployees(context.Background())
			if !errors.Is(err, ErrFetchFailed) {
				t.Fatalf("expected ErrFetchFailed, got %v", err)
			}
			if got != nil {
				t.Fatalf("expected no partial result, got %+v", got)
			}
			if n := atomic.LoadInt32(calls); n != 1 {
				t.Fatalf("expected no retry, got %d calls", n)
			}
		})
	}
}

func TestClient_FetchEmployees_NetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	if _, err := NewClient(addr).FetchEmployees(context.Background()); !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}

func TestClient_FetchEmployees_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	_, err := NewClient(srv.URL, WithTimeout(50*time.Millisecond)).FetchEmployees(context.Background())
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed on timeout, got %v", err)
	}
}

func TestNewClient_TimeoutIndependentOfOptionOrder(t *testing.T) {
	t.Parallel()

	custom := &http.Client{Transport: http.DefaultTransport}

	orders := map[string][]Option{
		"timeout first": {WithTimeout(3 * time.Second), WithHTTPClient(custom)},
		"client first":  {WithHTTPClient(custom), WithTimeout(3 * time.Second)},
	}
	for name, opts := range orders {
		c := NewClient("http://api.local", opts...)
		if c.httpClient.Timeout != 3*time.Second {
			t.Errorf("%s: expected timeout 3s, got %v", name, c.httpClient.Timeout)
		}
		if c.httpClient.Transport != custom.Transport {
			t.Errorf("%s: expected custom transport to be kept", name)
		}
	}
	if custom.Timeout != 0 {
		t.Fatalf("caller's http.Client must not be mutated, got timeout %v", custom.Timeout)
	}
}
