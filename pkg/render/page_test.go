package render_test

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/render"
	"github.com/goliatone/go-docfill/pkg/sections"
	"github.com/goliatone/go-docfill/pkg/wizard"
)

func TestPageRenderer_Fragment(t *testing.T) {
	r, err := render.New()
	require.NoError(t, err)

	out, err := r.Render(context.Background(), render.PageData{
		Title:      "สูติบัตร",
		TemplateID: "t-1",
		Rendered:   `<p>ชื่อ <mark class="docfill-active">สมชาย</mark></p>`,
		Sections: []model.Section{
			{ID: "s1", Name: "ข้อมูลเด็ก", Fields: []string{"name", "dob"}, ColorIndex: 1},
		},
		Step:      wizard.StepReview,
		Unmatched: []string{"ghost"},
	})
	require.NoError(t, err)
	page := string(out)

	assert.Contains(t, page, `<html lang="th">`)
	assert.Contains(t, page, "<title>สูติบัตร</title>")
	assert.Contains(t, page, `<p>ชื่อ <mark class="docfill-active">สมชาย</mark></p>`)
	assert.Contains(t, page, "--docfill-section-0-bg:"+sections.DefaultPalette[0].BG)
	assert.Contains(t, page, `<li class="docfill-step docfill-step-active" data-step="review">2. ตรวจสอบ</li>`)
	assert.Contains(t, page, `style="background-color:`+sections.DefaultPalette[1].BG)
	assert.Contains(t, page, "ข้อมูลเด็ก (2)")
	assert.Contains(t, page, "<code>ghost</code>")
	assert.Contains(t, page, "mark.docfill-active")
}

func TestPageRenderer_FullDocumentKeepsHeadStyles(t *testing.T) {
	r, err := render.New(render.WithLocale("en"), render.WithPalette(sections.Palette{{BG: "#000000", Text: "#ffffff"}}))
	require.NoError(t, err)

	out, err := r.Render(context.Background(), render.PageData{
		TemplateID: "t-2",
		Rendered:   `<html><head><style>.doc{margin:0}</style></head><body><div class="doc">x</div></body></html>`,
	})
	require.NoError(t, err)
	page := string(out)

	assert.Contains(t, page, `<html lang="en">`)
	assert.Contains(t, page, "<title>t-2</title>")
	assert.Contains(t, page, "<style>.doc{margin:0}</style>")
	assert.Contains(t, page, `<div class="doc">x</div>`)
	assert.Contains(t, page, "--docfill-section-0-bg:#000000")
	assert.NotContains(t, page, "docfill-legend")
	assert.Equal(t, 1, strings.Count(page, "<body"))
}

func TestPageRenderer_CustomTemplates(t *testing.T) {
	files := fstest.MapFS{
		render.PageTemplate: {Data: []byte(`{{ title }}|{{ body|safe }}`)},
	}
	r, err := render.New(render.WithTemplatesFS(files))
	require.NoError(t, err)

	out, err := r.Render(context.Background(), render.PageData{Title: "a", Rendered: "<i>b</i>"})
	require.NoError(t, err)
	assert.Equal(t, "a|<i>b</i>", string(out))
}

func TestPageRenderer_CancelledContext(t *testing.T) {
	r, err := render.New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Render(ctx, render.PageData{})
	assert.ErrorIs(t, err, context.Canceled)
}
