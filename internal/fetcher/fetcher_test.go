package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_LocalRelativeToBase(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "assets"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	p := filepath.Join(dir, "assets", "Catecismo Parte 1.html")
	if err := os.WriteFile(p, []byte("<p>ok</p>"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	f := New(dir, time.Second)
	b, err := f.Load(context.Background(), "assets/Catecismo Parte 1.html")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(b) != "<p>ok</p>" {
		t.Fatalf("body = %q", b)
	}
	if !f.IsLocal("assets/Catecismo Parte 1.html") {
		t.Fatalf("relative ref with directory base should be local")
	}
	if _, err := f.Load(context.Background(), "assets/missing.html"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file err = %v", err)
	}
}

func TestLoad_HTTPBaseEscapesPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte("<body>doc</body>"))
	}))
	defer srv.Close()

	f := New(srv.URL+"/static", time.Second, WithHTTPClient(srv.Client()))
	b, err := f.Load(context.Background(), "assets/Catecismo Parte 1.html")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(b) != "<body>doc</body>" {
		t.Fatalf("body = %q", b)
	}
	if gotPath != "/static/assets/Catecismo Parte 1.html" {
		t.Fatalf("server saw path %q", gotPath)
	}
	if f.IsLocal("assets/x.html") {
		t.Fatalf("http base must not resolve locally")
	}
}

func TestLoad_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	f := New("", time.Second, WithHTTPClient(srv.Client()))
	_, err := f.Load(context.Background(), srv.URL+"/x.html")
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("want ErrStatus, got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Fatalf("status error = %#v", err)
	}
	if !strings.Contains(se.Error(), "404") {
		t.Fatalf("Error() = %q", se.Error())
	}
}

func TestLoad_MaxBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer srv.Close()

	f := New("", time.Second, WithHTTPClient(srv.Client()), WithMaxBytes(10))
	if _, err := f.Load(context.Background(), srv.URL); err == nil {
		t.Fatalf("expected size error")
	}

	dir := t.TempDir()
	p := filepath.Join(dir, "big.html")
	_ = os.WriteFile(p, []byte(strings.Repeat("y", 100)), 0o600)
	if _, err := New(dir, time.Second, WithMaxBytes(10)).Load(context.Background(), "big.html"); err == nil {
		t.Fatalf("expected size error for local file")
	}
}

func TestLoad_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(t.TempDir(), time.Second).Load(ctx, "a.html"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestResolve(t *testing.T) {
	f := New("/srv/catecismo", 0)
	cases := map[string]string{
		"assets/a.html":             filepath.Join("/srv/catecismo", "assets", "a.html"),
		"https://example.org/a.htm": "https://example.org/a.htm",
		"file:///tmp/a.html":        filepath.FromSlash("/tmp/a.html"),
		"/abs/a.html":               "/abs/a.html",
	}
	for in, want := range cases {
		got, err := f.Resolve(in)
		if err != nil || got != want {
			t.Fatalf("Resolve(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if got, _ := New("", 0).Resolve("a.html"); got != "a.html" {
		t.Fatalf("empty base should resolve against cwd, got %q", got)
	}
}
