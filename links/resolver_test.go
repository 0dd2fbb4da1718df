package links

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"
)

func mustBase(t *testing.T, s string) Base {
	t.Helper()
	b, err := NewBase(s)
	if err != nil {
		t.Fatalf("NewBase(%q) error = %v", s, err)
	}
	return b
}

func TestNewBase(t *testing.T) {
	if b := mustBase(t, "HTTP://example.com/x"); !b.IsRemote() || b.IsMemory() {
		t.Errorf("expected remote base, got %+v", b)
	}
	if b := mustBase(t, "ftp://example.com/"); !b.IsRemote() {
		t.Errorf("expected remote base, got %+v", b)
	}
	if b := mustBase(t, "docs/index.html"); b.IsRemote() || b.IsMemory() {
		t.Errorf("expected file base, got %+v", b)
	}
	if b := mustBase(t, ""); !b.IsMemory() {
		t.Errorf("expected memory base, got %+v", b)
	}
	if _, err := NewBase("http://[::1"); err == nil {
		t.Error("expected error for malformed base URI")
	}
}

func TestResolve_URIBase(t *testing.T) {
	r := NewResolver(Policy{}, zaptest.NewLogger(t))
	base := mustBase(t, "http://example.com/dir/page.html")

	tests := []struct {
		ref, want string
	}{
		{"img/a.png", "http://example.com/dir/img/a.png"},
		{"../x.css", "http://example.com/x.css"},
		{"/root.css", "http://example.com/root.css"},
		{"//cdn.example.com/a.js", "http://cdn.example.com/a.js"},
		{"./a/../b.html?x=1", "http://example.com/dir/b.html?x=1"},
		{"HTTPS://Other.COM:443/./z", "https://other.com/z"},
		{"mailto:someone@example.com", "mailto:someone@example.com"},
	}
	for _, tt := range tests {
		got, err := r.Resolve(tt.ref, base)
		if err != nil {
			t.Errorf("Resolve(%q) error = %v", tt.ref, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}

	if _, err := r.Resolve("a%zz", base); err == nil {
		t.Error("expected error for malformed reference")
	}
}

func TestResolve_FileBase(t *testing.T) {
	r := NewResolver(Policy{}, nil)
	dir := t.TempDir()
	base := mustBase(t, filepath.Join(dir, "doc.html"))

	tests := []struct {
		ref, want string
	}{
		{"css/a.css", filepath.Join(dir, "css", "a.css")},
		{"../a.css", filepath.Join(filepath.Dir(dir), "a.css")},
		{"mailto:someone@example.com", "mailto:someone@example.com"},
		{"cid:part1", "cid:part1"},
		{"http://example.com/a/../b", "http://example.com/b"},
	}
	for _, tt := range tests {
		got, err := r.Resolve(tt.ref, base)
		if err != nil {
			t.Errorf("Resolve(%q) error = %v", tt.ref, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestResolve_MailContext(t *testing.T) {
	root := t.TempDir()
	r := NewResolver(Policy{MailContext: true, LocalAssetRoot: root}, nil)

	got, err := r.Resolve("/stylesheets/mail.css?1234", mustBase(t, ""))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if want := filepath.Join(root, "stylesheets", "mail.css"); got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}

	remote := mustBase(t, "http://example.com/dir/")
	tests := []struct {
		ref, want string
	}{
		{"a.css?v=2", "http://example.com/dir/a.css"},
		{"page.html?x=1", "http://example.com/dir/page.html?x=1"},
		{"mailto:a@example.com?subject=Hi", "mailto:a@example.com?subject=Hi"},
	}
	for _, tt := range tests {
		got, err := r.Resolve(tt.ref, remote)
		if err != nil {
			t.Errorf("Resolve(%q) error = %v", tt.ref, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}
