package gotemplate_test

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"testing"

	"github.com/goliatone/go-docfill/pkg/render/template/gotemplate"
	"github.com/goliatone/go-docfill/pkg/testsupport"
)

//go:embed testdata/*.tmpl
var embeddedTemplates embed.FS

func newEngine(t *testing.T, options ...gotemplate.Option) *gotemplate.Engine {
	t.Helper()

	templatesFS, err := fs.Sub(embeddedTemplates, "testdata")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}

	engine, err := gotemplate.New(append([]gotemplate.Option{gotemplate.WithFS(templatesFS)}, options...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngine_RenderTemplateWithThaiDate(t *testing.T) {
	engine := newEngine(t)

	got, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("letter", map[string]any{
			"name":   "  สมชาย ",
			"issued": "2024-01-15",
		}, w)
	})

	want := "<p>สมชาย 15 มกราคม 2567</p>\n"
	if got != want {
		t.Fatalf("render mismatch\nwant: %q\n got: %q", want, got)
	}
	if written != want {
		t.Fatalf("writer mismatch\nwant: %q\n got: %q", want, written)
	}
}

func TestEngine_GlobalContextAndAutoescape(t *testing.T) {
	engine := newEngine(t, gotemplate.WithGlobalData(map[string]any{"office": "<เขต>"}))

	got, err := engine.RenderTemplate("globals.tmpl", map[string]any{"body": "<b>ok</b>"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "&lt;เขต&gt;:<b>ok</b>\n"
	if got != want {
		t.Fatalf("render mismatch\nwant: %q\n got: %q", want, got)
	}
}

func TestEngine_RenderStringAndFilter(t *testing.T) {
	engine := newEngine(t)
	err := engine.RegisterFilter("docfill_test_shout", func(input any, _ any) (any, error) {
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	})
	if err != nil {
		t.Fatalf("register filter: %v", err)
	}
	if err := engine.RegisterFilter("docfill_test_shout", func(any, any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected duplicate filter error")
	}

	got, err := engine.Render("{{ name|docfill_test_shout }}", struct {
		Name string `json:"name"`
	}{Name: "ada"})
	if err != nil {
		t.Fatalf("render string: %v", err)
	}
	if got != "ADA!" {
		t.Fatalf("got %q", got)
	}
}

func TestNew_RequiresSource(t *testing.T) {
	if _, err := gotemplate.New(); err == nil {
		t.Fatalf("expected error without base dir or fs")
	}
}
