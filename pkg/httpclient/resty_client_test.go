package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRestyClientGetSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("expected GET, got %s", r.Method)
		}
		if got := r.Header.Get("X-Test"); got != "1" {
			t.Fatalf("missing header, got %q", got)
		}
		w.Header().Set("X-Reply", "yes")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	defer srv.Close()

	resp, err := NewRestyClient(2*time.Second).Get(context.Background(), srv.URL, map[string]string{"X-Test": "1"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode() != http.StatusTeapot {
		t.Fatalf("StatusCode = %d", resp.StatusCode())
	}
	if string(resp.Body()) != "short and stout" {
		t.Fatalf("Body = %q", resp.Body())
	}
	if resp.Header().Get("X-Reply") != "yes" {
		t.Fatalf("reply header missing: %#v", resp.Header())
	}
}

func TestRestyClientDoFormAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if got := r.URL.Query().Get("limit"); got != "3" {
			t.Fatalf("limit query = %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if got := r.PostForm.Get("text"); got != "hello world" {
			t.Fatalf("form text = %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := NewRestyClient(time.Second).Do(context.Background(), Request{
		Method: http.MethodPost,
		URL:    srv.URL,
		Query:  map[string]string{"limit": "3"},
		Form:   map[string]string{"text": "hello world"},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
}

func TestRestyClientDoJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("Content-Type = %q", ct)
		}
		raw, _ := io.ReadAll(r.Body)
		var got []map[string]string
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatalf("decode body %q: %v", raw, err)
		}
		if len(got) != 1 || got[0]["text"] != "fox" {
			t.Fatalf("unexpected body %#v", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	resp, err := NewRestyClient(time.Second).Do(context.Background(), Request{
		Method: http.MethodPost,
		URL:    srv.URL,
		JSON:   []map[string]string{{"text": "fox"}},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode() != http.StatusNoContent {
		t.Fatalf("StatusCode = %d", resp.StatusCode())
	}
}

func TestRestyClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	if _, err := NewRestyClient(time.Second).Get(context.Background(), url, nil); err == nil {
		t.Fatalf("expected transport error for closed server")
	}
}
