package docfill_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	docfill "github.com/goliatone/go-docfill"
	"github.com/goliatone/go-docfill/pkg/model"
)

func TestRenderHTML(t *testing.T) {
	defs := docfill.Definitions{
		"{{name}}": {Placeholder: "{{name}}", Entity: model.EntityChild},
		"{{dob}}":  {Placeholder: "{{dob}}", InputType: model.InputTypeDate, DateFormat: "d MMMM bbbb"},
	}
	values := docfill.FormValues{"{{name}}": "สมชาย", "dob": "2024-01-15"}

	result := docfill.RenderHTML("<p>{{name}} {{dob}} {{missing}}</p>", defs, values, nil)

	if result.HTML != "<p>สมชาย 15 มกราคม 2567 </p>" {
		t.Fatalf("unexpected html %q", result.HTML)
	}
	// every token of an inline template gets a definition, so nothing is
	// reported as unmatched
	if len(result.Unmatched) != 0 {
		t.Fatalf("expected no unmatched tokens, got %v", result.Unmatched)
	}
}

func TestGroupFields(t *testing.T) {
	defs := docfill.Definitions{
		"name":        {Entity: model.EntityChild},
		"mother_name": {Entity: model.EntityMother},
		"id_1":        {Group: model.ParseGroup("merged_hidden_id")},
	}
	got := docfill.GroupFields(defs)
	if len(got) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(got))
	}
	if diff := cmp.Diff([]string{"mother_name"}, got[1].Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}
