package fetcher

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		switch r.URL.Path {
		case "/file.txt":
			w.Write([]byte("hello attachment"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	c := New().WithUserAgent("test-agent")

	t.Run("success", func(t *testing.T) {
		var buf bytes.Buffer
		n, err := c.Fetch(context.Background(), ts.URL+"/file.txt", &buf)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != int64(len("hello attachment")) || buf.String() != "hello attachment" {
			t.Errorf("got %d bytes %q", n, buf.String())
		}
	})

	t.Run("not found", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := c.Fetch(context.Background(), ts.URL+"/missing", &buf)
		if err == nil || !strings.Contains(err.Error(), "HTTP 404") {
			t.Errorf("got %v, want HTTP 404 error", err)
		}
	})

	t.Run("size cap", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := New().WithUserAgent("test-agent").WithMaxBytes(4).Fetch(context.Background(), ts.URL+"/file.txt", &buf)
		if !errors.Is(err, ErrTooLarge) {
			t.Errorf("got %v, want ErrTooLarge", err)
		}
	})

	t.Run("rate limited client still fetches", func(t *testing.T) {
		rc := New().WithUserAgent("test-agent").WithRateLimit(100)
		for i := 0; i < 2; i++ {
			var buf bytes.Buffer
			if _, err := rc.Fetch(context.Background(), ts.URL+"/file.txt", &buf); err != nil {
				t.Fatalf("fetch %d: %v", i, err)
			}
		}
	})
}

func TestFetchRejectsScheme(t *testing.T) {
	var buf bytes.Buffer
	_, err := New().Fetch(context.Background(), "ftp://example.com/x", &buf)
	if err == nil || !strings.Contains(err.Error(), "unsupported scheme") {
		t.Errorf("got %v, want unsupported scheme", err)
	}
}

func TestIsURL(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"https://example.com", true},
		{" http://x", true},
		{"www.example.com", true},
		{"attachments/a.png", false},
	}
	for _, tt := range tests {
		if got := IsURL(tt.s); got != tt.want {
			t.Errorf("IsURL(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
}
