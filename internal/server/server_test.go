package server

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestBasicRouter(t *testing.T) {
	t.Run("method filtering", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "pong")
		}))

		tt := []struct {
			method string
			status int
		}{
			{http.MethodGet, http.StatusOK},
			{http.MethodPost, http.StatusMethodNotAllowed},
		}

		for _, tc := range tt {
			t.Run(tc.method, func(t *testing.T) {
				rec := httptest.NewRecorder()
				router.ServeHTTP(rec, httptest.NewRequest(tc.method, "/ping", nil))
				if rec.Code != tc.status {
					t.Errorf("expected %d, got %d", tc.status, rec.Code)
				}
				if tc.status == http.StatusMethodNotAllowed && rec.Header().Get("Allow") != "GET" {
					t.Errorf("expected Allow header, got %q", rec.Header().Get("Allow"))
				}
			})
		}
	})

	t.Run("middleware order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter(mark("first"))
		router.Use(mark("second"))
		router.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("logging middleware", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.New(&buf)
		logger.SetLevel(log.DebugLevel)

		router := NewBasicRouter(LoggingMiddleware(logger))
		router.Handle(http.MethodGet, "/callback", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?code=secret", nil))

		out := buf.String()
		if !strings.Contains(out, "/callback") || !strings.Contains(out, "418") {
			t.Errorf("expected path and status logged, got %q", out)
		}
		if strings.Contains(out, "secret") {
			t.Errorf("query string must not be logged, got %q", out)
		}
	})
}

func TestCallbackServer(t *testing.T) {
	router := NewBasicRouter()
	router.Handle(http.MethodGet, "/hello", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "hi")
	}))

	srv, err := Listen("127.0.0.1:0", router, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Listen() error: %v", err)
	}

	if !strings.HasPrefix(srv.URL("/hello"), "http://127.0.0.1:") {
		t.Errorf("unexpected URL %s", srv.URL("/hello"))
	}

	resp, err := http.Get(srv.URL("/hello"))
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "hi" {
		t.Errorf("unexpected body %q", body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
	if _, err := http.Get(srv.URL("/hello")); err == nil {
		t.Error("expected request to fail after shutdown")
	}

	t.Run("address in use", func(t *testing.T) {
		first, err := Listen("127.0.0.1:0", router, nil)
		if err != nil {
			t.Fatalf("Listen() error: %v", err)
		}
		defer first.Shutdown(context.Background())

		if _, err := Listen(first.Addr(), router, nil); err == nil {
			t.Error("expected error binding an address in use")
		}
	})
}
