package premail_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap/zaptest"

	"premail/common"
	"premail/premail"
)

const page = `<html><head><title> Hello </title>
<link rel="stylesheet" href="style.css">
<link rel="stylesheet" href="print.css" media="print">
<style>p.note { color: blue } #x { color: green }</style>
</head><body>
<h1>Hi</h1>
<p class="note" id="x">one</p>
<p class="note">two</p>
<span>untouched</span>
<a href="page2.html">next</a>
</body></html>`

func writeSite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"page.html": page,
		"style.css": "p { color: red; font-size: 12px } a:hover { color: red }",
		"print.css": "p { color: black }",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return filepath.Join(dir, "page.html")
}

func parse(t *testing.T, src string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		t.Fatalf("goquery: %v", err)
	}
	return doc
}

func inlined(t *testing.T, p *premail.Premailer) *goquery.Document {
	t.Helper()
	out, err := p.InlineHTML()
	if err != nil {
		t.Fatalf("InlineHTML() error = %v", err)
	}
	return parse(t, out)
}

func TestPremailer_LocalFile(t *testing.T) {
	p, err := premail.New(context.Background(), writeSite(t), premail.WithLogger(zaptest.NewLogger(t)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := p.Diagnostics(); err != nil {
		t.Errorf("Diagnostics() = %v", err)
	}
	if got := p.Title(); got != "Hello" {
		t.Errorf("Title() = %q", got)
	}

	doc := inlined(t, p)

	styles := map[string]string{
		"#x":                     "font-size: 12px; color: green;",
		"p.note:not([id])":       "font-size: 12px; color: blue;",
		"h1":                     "",
		"span":                   "",
		"a":                      "",
		`style[type="text/css"]`: "",
	}
	for sel, want := range styles {
		s := doc.Find(sel)
		if s.Length() != 1 {
			t.Errorf("%s: found %d elements", sel, s.Length())
			continue
		}
		got, ok := s.Attr("style")
		if want == "" && ok {
			t.Errorf("%s: unexpected style %q", sel, got)
		}
		if want != "" && got != want {
			t.Errorf("%s: style = %q, want %q", sel, got, want)
		}
	}

	if n := doc.Find("link").Length(); n != 0 {
		t.Errorf("%d stylesheet links left", n)
	}
	if got := doc.Find("head style").Text(); !strings.Contains(got, "a:hover { color: red; }") {
		t.Errorf("unmergable rules missing from %q", got)
	}
	if href, _ := doc.Find("a").Attr("href"); href != "page2.html" {
		t.Errorf("link changed without base: %q", href)
	}
}

func TestPremailer_InlineDoesNotChangeLoadedDocument(t *testing.T) {
	p, err := premail.New(context.Background(), writeSite(t))
	if err != nil {
		t.Fatal(err)
	}
	first, _ := p.InlineHTML()
	second, _ := p.InlineHTML()
	if first != second {
		t.Error("InlineHTML() is not stable")
	}
	if strings.Contains(p.String(), "color: green") {
		t.Error("String() contains merged styles")
	}
}

func TestPremailer_BaseURL(t *testing.T) {
	p, err := premail.New(context.Background(), writeSite(t),
		premail.WithBaseURL("example.com/news/"),
		premail.WithLinkQueryString("utm_source=mail"))
	if err != nil {
		t.Fatal(err)
	}
	doc := inlined(t, p)
	if href, _ := doc.Find("a").Attr("href"); href != "http://example.com/news/page2.html?utm_source=mail" {
		t.Errorf("href = %q", href)
	}
	// stylesheets of local documents are still read from disk
	if style, _ := doc.Find("#x").Attr("style"); style != "font-size: 12px; color: green;" {
		t.Errorf("style = %q", style)
	}
}

func TestPremailer_Remote(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/mail/doc.html", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head><link rel="stylesheet" href="../css/s.css"></head>` +
			`<body><div>x</div><img src="img/a.png"><a href="mailto:me@example.com">me</a></body></html>`))
	})
	mux.HandleFunc("/css/s.css", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		w.Write([]byte(`div { background: url(bg.png) }`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p, err := premail.New(context.Background(), srv.URL+"/mail/doc.html", premail.WithLogger(zaptest.NewLogger(t)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	doc := inlined(t, p)

	if src, _ := doc.Find("img").Attr("src"); src != srv.URL+"/mail/img/a.png" {
		t.Errorf("src = %q", src)
	}
	if href, _ := doc.Find("a").Attr("href"); href != "mailto:me@example.com" {
		t.Errorf("mailto changed: %q", href)
	}
	if style, _ := doc.Find("div").Attr("style"); !strings.Contains(style, srv.URL+"/css/bg.png") {
		t.Errorf("style = %q", style)
	}
}

func TestPremailer_Properties(t *testing.T) {
	tests := []struct {
		name string
		src  string
		sel  string
		want string
	}{
		{"later wins on equal specificity", `<style>.a{color:red}.a{color:blue}</style><p class="a">x</p>`, "p", "color: blue;"},
		{"higher specificity wins", `<style>#i{color:green} p{color:red}</style><p id="i">x</p>`, "p", "color: green;"},
		{"inline style wins", `<style>p{color:red; margin:0}</style><p style="color: black">x</p>`, "p", "margin: 0; color: black;"},
		{"quotes replaced", `<style>p{font-family:"Times New Roman"}</style><p>x</p>`, "p", "font-family: 'Times New Roman';"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := premail.NewFromString(context.Background(), tt.src)
			if err != nil {
				t.Fatal(err)
			}
			if got, _ := inlined(t, p).Find(tt.sel).Attr("style"); got != tt.want {
				t.Errorf("style = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPremailer_Unmergable(t *testing.T) {
	p, err := premail.NewFromString(context.Background(), `<style>a:hover{color:red}</style><a href="#">x</a>`)
	if err != nil {
		t.Fatal(err)
	}
	doc := inlined(t, p)
	if _, ok := doc.Find("a").Attr("style"); ok {
		t.Error("hover rule inlined")
	}
	if n := doc.Find("style").Length(); n != 1 {
		t.Errorf("%d style elements, want 1", n)
	}
}

func TestPremailer_PlainText(t *testing.T) {
	p, err := premail.New(context.Background(), writeSite(t))
	if err != nil {
		t.Fatal(err)
	}
	want := "**\nHi\n**\n\none\n\ntwo\n\nuntouched\nnext [page2.html]"
	if got := p.PlainText(); got != want {
		t.Errorf("PlainText() = %q, want %q", got, want)
	}
}

func TestPremailer_Warnings(t *testing.T) {
	src := `<style>p{position:absolute}</style><p>x</p>`

	p, err := premail.NewFromString(context.Background(), src, premail.WithWarnLevel(common.WarnLevelNone))
	if err != nil {
		t.Fatal(err)
	}
	if ws := p.Warnings(); len(ws) != 0 {
		t.Errorf("Warnings() = %v, want none", ws)
	}

	p, err = premail.NewFromString(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	ws := p.Warnings()
	if len(ws) != 1 || ws[0].Message != "position CSS property" {
		t.Errorf("Warnings() = %v", ws)
	}
}

func TestPremailer_Errors(t *testing.T) {
	if _, err := premail.New(context.Background(), " "); !errors.Is(err, premail.ErrEmptySource) {
		t.Errorf("New(empty) error = %v", err)
	}
	if _, err := premail.New(context.Background(), filepath.Join(t.TempDir(), "missing.html")); !errors.Is(err, premail.ErrLoadDocument) {
		t.Errorf("New(missing) error = %v", err)
	}
}

func TestPremailer_MissingStylesheet(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "page.html")
	src := `<html><head><link rel="stylesheet" href="missing.css"><style>p{color:red}</style></head><body><p>x</p></body></html>`
	if err := os.WriteFile(name, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := premail.New(context.Background(), name)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p.Diagnostics() == nil {
		t.Error("missing stylesheet not recorded")
	}
	if style, _ := inlined(t, p).Find("p").Attr("style"); style != "color: red;" {
		t.Errorf("style = %q", style)
	}
}

func TestPremailer_DebugString(t *testing.T) {
	p, err := premail.NewFromString(context.Background(),
		`<html><head><title>T</title><style>p{color:red} a:hover{color:blue}</style></head><body><p style="position: absolute">x</p></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	p.Warnings()

	out := p.DebugString()
	for _, want := range []string{
		"Document base: <empty>",
		`Title: "T"`,
		"Rules: 2",
		"  [0] p specificity[1]",
		"    color: red",
		"Diagnostics: 0",
		"Warnings: 1",
		"[RISKY] position CSS property",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("DebugString() has no %q:\n%s", want, out)
		}
	}
}
