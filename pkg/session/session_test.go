package session_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/session"
	"github.com/goliatone/go-docfill/pkg/testsupport"
	"github.com/goliatone/go-docfill/pkg/wizard"
)

var allowed = session.Capabilities{Authenticated: true, CanGenerate: true}

func TestLoad_EnhancesAndLabels(t *testing.T) {
	bundle, err := session.Load(context.Background(), testsupport.BirthCertificate(), "t-1")
	require.NoError(t, err)

	assert.Empty(t, bundle.Warnings)
	assert.Equal(t, model.InputTypeDate, bundle.Definitions["dob"].InputType)
	assert.Equal(t, "วันที่", bundle.Definitions["dob"].DataTypeLabel)
	assert.Equal(t, "ชื่อบุตร", bundle.Labels["name"])
	assert.Equal(t, "dob", bundle.Labels["dob"])
	assert.Equal(t, []string{"name", "dob", "mother_name"}, bundle.Keys())
}

func TestLoad_MissingTemplateIsFatal(t *testing.T) {
	_, err := session.Load(context.Background(), testsupport.BirthCertificate(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, session.ErrTemplateNotFound))
}

func TestLoad_DegradesWhenDefinitionsAndPreviewFail(t *testing.T) {
	client := testsupport.BirthCertificate()
	client.DefsErr = errors.New("timeout")
	client.PreviewErr = errors.New("gcs down")

	bundle, err := session.Load(context.Background(), client, "t-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"field definitions unavailable", "preview unavailable"}, bundle.Warnings)
	require.Len(t, bundle.Definitions, 3)
	assert.Equal(t, model.InputTypeText, bundle.Definitions["mother_name"].InputType)
	assert.Equal(t, "", bundle.HTML)
}

func TestEditor_SaveWritesCompleteRecomputedMap(t *testing.T) {
	client := testsupport.BirthCertificate()
	editor, err := session.LoadEditor(context.Background(), client, "t-1")
	require.NoError(t, err)

	var names []string
	for _, section := range editor.Board().Sections() {
		names = append(names, section.Name+":"+strings.Join(section.Fields, ","))
	}
	if diff := cmp.Diff([]string{"ข้อมูลบุตร:dob,name", "ข้อมูลมารดา:mother_name"}, names); diff != "" {
		t.Fatalf("initial sections mismatch (-want +got):\n%s", diff)
	}

	require.True(t, editor.Board().MoveFieldToSection("entity-child", "entity-mother", "name", 99))
	saved, err := editor.Save(context.Background())
	require.NoError(t, err)

	require.Len(t, client.Saved(), 3)
	assert.Equal(t, "ข้อมูลบุตร|0", client.Saved()["dob"].Group.String())
	assert.Equal(t, "ข้อมูลมารดา|1", client.Saved()["name"].Group.String())
	assert.Equal(t, 2, client.Saved()["name"].OrderOr(-1))
	assert.Equal(t, saved["name"].Group, editor.Definitions()["name"].Group)
	assert.Empty(t, editor.Unassigned())
}

func TestEditor_PreviewUsesBoardColors(t *testing.T) {
	editor, err := session.LoadEditor(context.Background(), testsupport.BirthCertificate(), "t-1")
	require.NoError(t, err)

	res := editor.Preview(model.FormValues{"name": "Somchai", "dob": "2023-05-01"}, "name")
	assert.Contains(t, res.HTML, `<mark class="docfill-active" data-field="name"`)
	assert.Contains(t, res.HTML, "01/05/2023")
	assert.NotContains(t, res.HTML, "{{")

	nodes, _ := editor.Layout()
	assert.Len(t, nodes, 5)
}

func TestEditor_PreviewMarksEmptyActiveField(t *testing.T) {
	editor, err := session.LoadEditor(context.Background(), testsupport.BirthCertificate(), "t-1")
	require.NoError(t, err)

	res := editor.Preview(model.FormValues{}, "name")
	assert.Contains(t, res.HTML, `class="docfill-blank docfill-active" data-field="name"`)
	assert.Empty(t, res.Unmatched)
	assert.NotContains(t, res.HTML, "{{")
}

func TestEditor_SaveLeavesCatalogDefaultsOut(t *testing.T) {
	client := testsupport.BirthCertificate()
	client.Defs["t-1"]["id_number"] = model.FieldDefinition{Placeholder: "{{id_number}}", DataType: "id_card", Entity: model.EntityChild}
	client.Catalog = append(client.Catalog, model.ConfigurableDataType{
		Code:         "id_card",
		Name:         "เลขบัตรประชาชน",
		InputType:    "digit",
		DefaultValue: "x-xxxx-xxxxx-xx-x",
		Validation:   `{"maxLength":13}`,
		IsActive:     true,
	})

	editor, err := session.LoadEditor(context.Background(), client, "t-1")
	require.NoError(t, err)
	assert.Equal(t, model.InputTypeDigit, editor.Bundle().Definitions["id_number"].InputType)

	_, err = editor.Save(context.Background())
	require.NoError(t, err)

	saved := client.Saved()["id_number"]
	assert.Empty(t, saved.InputType)
	assert.Empty(t, saved.DigitFormat)
	assert.Empty(t, saved.DataTypeLabel)
	assert.Nil(t, saved.Validation)
	assert.Equal(t, "id_card", saved.DataType)
	assert.NotEmpty(t, saved.Group.String())
	assert.Empty(t, client.Saved()["dob"].InputType)

	res := editor.Preview(model.FormValues{"dob": "2023-05-01"}, "")
	assert.Contains(t, res.HTML, "01/05/2023")
}

func TestFiller_InitialValuesAndMerge(t *testing.T) {
	filler, err := session.LoadFiller(context.Background(), testsupport.BirthCertificate(), "t-1", allowed)
	require.NoError(t, err)

	want := model.FormValues{"name": "", "dob": "", "mother_name": ""}
	if diff := cmp.Diff(want, filler.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	filler.Set("{{name}}", "Somchai")
	filler.Merge(map[string]string{"name": "", "mother_name": "Malee"})
	filler.SetActive("mother_name")

	assert.Equal(t, "Somchai", filler.Values()["name"])
	assert.Equal(t, "Malee", filler.Values()["mother_name"])
	assert.Contains(t, filler.Preview().HTML, `data-field="mother_name"`)
}

func TestFiller_LockedCallersAreRedirected(t *testing.T) {
	client := testsupport.BirthCertificate()
	cases := []struct {
		caps     session.Capabilities
		location string
	}{
		{caps: session.Capabilities{}, location: "/login?next=%2Ftemplates%2Ft-1"},
		{caps: session.Capabilities{Authenticated: true}, location: "/templates/t-1?quota=exceeded"},
	}
	for _, tc := range cases {
		filler, err := session.LoadFiller(context.Background(), client, "t-1", tc.caps)
		require.NoError(t, err)

		outcome, err := filler.ConfirmAndProcess(context.Background())
		require.NoError(t, err)
		require.NotNil(t, outcome.Redirect)
		assert.Equal(t, tc.location, outcome.Redirect.Location)
		assert.Nil(t, client.Processed())
	}

	assert.False(t, session.Capabilities{Authenticated: true, Admin: true}.Locked())
}

func TestFiller_ProcessSuccessAdvancesToDownload(t *testing.T) {
	client := testsupport.BirthCertificate()
	drafts := &testsupport.MemoryDrafts{}
	filler, err := session.LoadFiller(context.Background(), client, "t-1", allowed, session.WithDrafts(drafts, "u-1"))
	require.NoError(t, err)
	require.NoError(t, drafts.Save(context.Background(), "u-1", "t-1", model.FormValues{"name": "Draft"}))

	restored, err := filler.RestoreDraft(context.Background())
	require.NoError(t, err)
	assert.True(t, restored)
	filler.Wizard().GoToReview()

	outcome, err := filler.ConfirmAndProcess(context.Background())
	require.NoError(t, err)
	require.NotNil(t, outcome.Document)
	assert.Equal(t, "doc-1", outcome.Document.DocumentID)
	assert.Equal(t, "Draft", client.Processed()["{{name}}"])
	assert.Equal(t, wizard.StepDownload, filler.Wizard().Current())

	left, _ := drafts.Load(context.Background(), "u-1", "t-1")
	assert.Empty(t, left)

	blob, err := filler.Download(context.Background(), "pdf")
	require.NoError(t, err)
	assert.Equal(t, "doc-1.pdf", string(blob))
}

func TestFiller_ProcessExpandsCompositeFields(t *testing.T) {
	client := testsupport.BirthCertificate()
	defs := client.Defs["t-1"]
	defs["fullname"] = model.FieldDefinition{
		Placeholder:  "{{fullname}}",
		IsMerged:     true,
		MergedFields: []string{"first", "last"},
		Separator:    " ",
	}
	defs["gender"] = model.FieldDefinition{
		Placeholder:  "{{gender}}",
		IsRadioGroup: true,
		RadioOptions: []model.RadioOption{
			{Value: "m", Placeholder: "{{male}}"},
			{Value: "f", Placeholder: "{{female}}"},
		},
	}
	filler, err := session.LoadFiller(context.Background(), client, "t-1", allowed)
	require.NoError(t, err)

	filler.Set("fullname", "Somchai Dee")
	filler.Set("gender", "f")
	filler.Set("dob", "2023-05-01")
	filler.Wizard().GoToReview()
	_, err = filler.ConfirmAndProcess(context.Background())
	require.NoError(t, err)

	got := client.Processed()
	want := map[string]string{
		"{{fullname}}": "Somchai Dee",
		"{{first}}":    "Somchai",
		"{{last}}":     "Dee",
		"{{gender}}":   "f",
		"{{male}}":     "",
		"{{female}}":   "✓",
		"{{dob}}":      "2023-05-01",
	}
	for key, value := range want {
		assert.Equal(t, value, got[key], key)
	}
	assert.Equal(t, "Somchai Dee", filler.Values()["fullname"])
	_, exposed := filler.Values()["first"]
	assert.False(t, exposed)
}

func TestFiller_ProcessFailureKeepsValuesAndStaysOnReview(t *testing.T) {
	client := testsupport.BirthCertificate()
	client.ProcessErr = errors.New("backend 502")
	drafts := &testsupport.MemoryDrafts{}
	filler, err := session.LoadFiller(context.Background(), client, "t-1", allowed, session.WithDrafts(drafts, "u-1"))
	require.NoError(t, err)

	filler.Set("name", "Somchai")
	filler.Wizard().GoToReview()
	_, err = filler.ConfirmAndProcess(context.Background())
	require.Error(t, err)

	require.NotNil(t, filler.Banner())
	assert.Equal(t, session.MessageProcessFailed, filler.Banner().Message)
	assert.Equal(t, wizard.StepReview, filler.Wizard().Current())
	assert.Equal(t, "Somchai", filler.Values()["name"])

	saved, _ := drafts.Load(context.Background(), "u-1", "t-1")
	assert.Equal(t, "Somchai", saved["name"])

	filler.DismissBanner()
	assert.Nil(t, filler.Banner())

	_, err = filler.Download(context.Background(), "docx")
	assert.ErrorIs(t, err, session.ErrNoDocument)
}

func TestFiller_StaleResultIsDiscarded(t *testing.T) {
	client := testsupport.BirthCertificate()
	filler, err := session.LoadFiller(context.Background(), client, "t-1", allowed)
	require.NoError(t, err)

	other := session.NewBundle(model.Template{ID: "t-2", Placeholders: `["x"]`}, nil, nil, "{{x}}")
	client.BeforeProcessReturn = func() { filler.Reset(other) }

	_, err = filler.ConfirmAndProcess(context.Background())
	assert.ErrorIs(t, err, session.ErrStale)
	assert.Nil(t, filler.Document())
	assert.Equal(t, "t-2", filler.TemplateID())
	assert.Equal(t, wizard.StepFill, filler.Wizard().Current())
}

func TestRelevance(t *testing.T) {
	var r session.Relevance
	first := r.Begin("a")
	assert.True(t, r.Valid(first))

	second := r.Begin("a")
	assert.False(t, r.Valid(first))
	assert.True(t, r.Valid(second))

	r.Begin("b")
	assert.False(t, r.Valid(second))
}
