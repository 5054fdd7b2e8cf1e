package sanitize

import (
    "net/url"
    "testing"
    "unicode/utf8"

    "bibdb/src/internal/entry"
)

func TestCleanString(t *testing.T) {
    in := "  \tHello\x00World\n  "
    out := CleanString(in, 100)
    if out != "HelloWorld" {
        t.Fatalf("CleanString unexpected: %q", out)
    }
    if s := CleanString("abcdef", 3); s != "abc" {
        t.Fatalf("CleanString truncation: want 'abc', got %q", s)
    }
    if s := CleanString("äöüß", 2); s != "äö" {
        t.Fatalf("CleanString counts runes: got %q", s)
    }
    if !utf8.ValidString(out) {
        t.Fatalf("CleanString produced invalid utf8")
    }
}

func TestCollapseSpace(t *testing.T) {
    if got := CollapseSpace("  A\n  title\twith   gaps "); got != "A title with gaps" {
        t.Fatalf("CollapseSpace: got %q", got)
    }
}

func TestCleanURL(t *testing.T) {
    if CleanURL("") != "" { t.Fatalf("CleanURL empty should be empty") }
    if CleanURL("not a url") != "" { t.Fatalf("CleanURL invalid should be empty") }
    u := CleanURL("https://example.com/a b")
    if _, err := url.Parse(u); err != nil { t.Fatalf("CleanURL not parseable: %v", err) }
    if CleanURL("ftp://x") != "" { t.Fatalf("only http/https allowed") }
}

func TestCleanFields(t *testing.T) {
    f := entry.NewFields()
    f.Set("title", "  Title\x01 ")
    f.Set("url", "ftp://nope")
    f.Set("note", "   ")
    f.SetList("file", []string{" /a ", ""})
    CleanFields(f)
    if got := f.String("title"); got != "Title" { t.Fatalf("title: %q", got) }
    if f.Has("url") || f.Has("note") { t.Fatalf("empty fields kept: %v", f.Keys()) }
    if got := f.List("file"); len(got) != 1 || got[0] != "/a" { t.Fatalf("file: %v", got) }
    CleanFields(nil)
}
