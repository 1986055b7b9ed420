package api

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestBuildCDXQuery verifies the query string is built correctly
func TestBuildCDXQuery(t *testing.T) {
	tests := []struct {
		domain string
		limit  int
		want   string
	}{
		{"bfl.ai", 50, "url=bfl.ai&output=json&limit=50"},
		{"  Example.COM ", 10, "url=example.com&output=json&limit=10"},
		{"www.archive.org", 1, "url=www.archive.org&output=json&limit=1"},
	}

	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			if got := BuildCDXQuery(tt.domain, tt.limit); got != tt.want {
				t.Errorf("BuildCDXQuery(%q, %d) = %q, want %q", tt.domain, tt.limit, got, tt.want)
			}
		})
	}
}

// TestExtractRootDomain tests domain extraction
func TestExtractRootDomain(t *testing.T) {
	tests := []struct {
		input    string
		wantRoot string
		wantErr  bool
	}{
		{"bfl.ai", "bfl.ai", false},
		{"playground.bfl.ai", "bfl.ai", false},
		{"https://playground.bfl.ai/", "bfl.ai", false},
		{"https://www.example.com/path?query=1", "example.com", false},
		{"test.dev.pci.westcoast.acme.com", "acme.com", false},
		{"shop.example.co.uk", "example.co.uk", false},
		{"", "", true}, // empty input should error
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ExtractRootDomain(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ExtractRootDomain(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.wantRoot {
				t.Errorf("ExtractRootDomain(%q) = %q, want %q", tt.input, got, tt.wantRoot)
			}
		})
	}
}

func TestExtractHost(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Example.com.", "example.com"},
		{"https://WWW.Example.com:8443/a/b", "www.example.com"},
		{" api.example.org ", "api.example.org"},
		{"example.com/path/to/page", "example.com"},
		{"Example.com/", "example.com"},
		{"example.com?q=1", "example.com"},
	}
	for _, tt := range tests {
		got, err := ExtractHost(tt.input)
		if err != nil {
			t.Fatalf("ExtractHost(%q) unexpected error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ExtractHost(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFetchSnapshots_Success(t *testing.T) {
	payload := `[["urlkey","timestamp","original","mimetype","statuscode","digest","length"],["com,example)/","20200101000000","http://example.com/","text/html","200","X","1"]]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cdx/search/cdx" {
			t.Errorf("path = %q, want /cdx/search/cdx", r.URL.Path)
		}
		if got := r.URL.Query().Get("url"); got != "example.com" {
			t.Errorf("url = %q, want example.com", got)
		}
		if got := r.URL.Query().Get("limit"); got != "50" {
			t.Errorf("limit = %q, want 50", got)
		}
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	client := NewWaybackClient(srv.URL, 0, ClientOptions{}, nil)
	body, err := client.FetchSnapshots(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != payload {
		t.Errorf("body = %q, want %q", body, payload)
	}
}

func TestFetchSnapshots_Gzip(t *testing.T) {
	payload := `[["h"],["x","20200101000000","http://example.com/","text/html","200"]]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		gz.Write([]byte(payload))
		gz.Close()
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	client := NewWaybackClient(srv.URL, 5, ClientOptions{}, nil)
	body, err := client.FetchSnapshots(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != payload {
		t.Errorf("body = %q, want %q", body, payload)
	}
}

func TestFetchSnapshots_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	client := NewWaybackClient(srv.URL, 5, ClientOptions{}, nil)
	_, err := client.FetchSnapshots(context.Background(), "example.com")
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error %v is not a *StatusError", err)
	}
	if statusErr.Code != http.StatusServiceUnavailable {
		t.Errorf("Code = %d, want 503", statusErr.Code)
	}
	if !strings.Contains(err.Error(), "status 503") {
		t.Errorf("error = %q, want mention of status 503", err.Error())
	}
}

func TestFetchSnapshots_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := NewWaybackClient(srv.URL, 5, ClientOptions{Timeout: 50 * time.Millisecond}, nil)
	if _, err := client.FetchSnapshots(context.Background(), "example.com"); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestFetchSnapshots_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewWaybackClient(srv.URL, 5, ClientOptions{RateLimit: 1}, nil)
	if _, err := client.FetchSnapshots(ctx, "example.com"); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

// TestFetchSnapshotsIntegration is an integration test that actually calls the API
// Run with: go test -v -run TestFetchSnapshotsIntegration ./internal/api/
func TestFetchSnapshotsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := NewWaybackClient("", 5, ClientOptions{Timeout: 30 * time.Second}, nil)
	body, err := client.FetchSnapshots(context.Background(), "example.com")
	if err != nil {
		t.Skipf("Wayback unavailable: %v", err)
	}

	fmt.Printf("Fetched %d bytes for example.com\n", len(body))
}
