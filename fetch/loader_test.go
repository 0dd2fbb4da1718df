package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"
	"golang.org/x/text/encoding/charmap"
)

func TestLoader_RemoteStylesheet(t *testing.T) {
	var gotUA, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA, gotAuth = r.Header.Get("User-Agent"), r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/main.css":
			w.Header().Set("Content-Type", "text/css; charset=utf-8")
			w.Write([]byte("p { color: red }"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := NewLoader(WithUserAgent("premail-test"), WithAuthorization("Bearer x"), WithLogger(zaptest.NewLogger(t)))

	got, err := l.Stylesheet(context.Background(), srv.URL+"/main.css")
	if err != nil {
		t.Fatalf("Stylesheet() error = %v", err)
	}
	if got != "p { color: red }" {
		t.Errorf("Stylesheet() = %q", got)
	}
	if gotUA != "premail-test" || gotAuth != "Bearer x" {
		t.Errorf("headers not sent: ua=%q auth=%q", gotUA, gotAuth)
	}

	_, err = l.Stylesheet(context.Background(), srv.URL+"/missing.css")
	if !errors.Is(err, ErrStatus) {
		t.Errorf("expected ErrStatus, got %v", err)
	}
}

func TestLoader_RemoteDocumentCharset(t *testing.T) {
	body, err := charmap.Windows1251.NewEncoder().String("<p>Привет</p>")
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=windows-1251")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	got, err := NewLoader().Document(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	if got != "<p>Привет</p>" {
		t.Errorf("Document() = %q", got)
	}
}

func TestLoader_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewLoader()
	if _, err := l.Document(ctx, srv.URL); err == nil {
		t.Error("expected error for cancelled context")
	}
	if _, err := l.Document(ctx, filepath.Join(t.TempDir(), "x.html")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLoader_LocalFiles(t *testing.T) {
	dir := t.TempDir()

	latin := []byte("@charset \"iso-8859-1\";\np:after { content: \"caf\xe9\" }")
	if err := os.WriteFile(filepath.Join(dir, "latin.css"), latin, 0644); err != nil {
		t.Fatal(err)
	}
	bom := []byte("\xef\xbb\xbf<p>ok</p>")
	if err := os.WriteFile(filepath.Join(dir, "bom.html"), bom, 0644); err != nil {
		t.Fatal(err)
	}
	cp, _ := charmap.KOI8R.NewEncoder().String("<p>тест</p>")
	if err := os.WriteFile(filepath.Join(dir, "koi8.html"), []byte(cp), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "empty.css"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader()
	ctx := context.Background()

	got, err := l.Stylesheet(ctx, filepath.Join(dir, "latin.css"))
	if err != nil {
		t.Fatalf("Stylesheet() error = %v", err)
	}
	if want := "@charset \"iso-8859-1\";\np:after { content: \"café\" }"; got != want {
		t.Errorf("Stylesheet() = %q, want %q", got, want)
	}

	if got, err = l.Document(ctx, filepath.Join(dir, "bom.html")); err != nil || got != "<p>ok</p>" {
		t.Errorf("Document() = %q, %v", got, err)
	}

	forced := NewLoader(WithEncoding(charmap.KOI8R))
	if got, err = forced.Document(ctx, filepath.Join(dir, "koi8.html")); err != nil || got != "<p>тест</p>" {
		t.Errorf("Document() with forced encoding = %q, %v", got, err)
	}

	if got, err = l.Stylesheet(ctx, filepath.Join(dir, "empty.css")); err != nil || got != "" {
		t.Errorf("Stylesheet() of empty file = %q, %v", got, err)
	}

	if _, err = l.Stylesheet(ctx, filepath.Join(dir, "missing.css")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}
