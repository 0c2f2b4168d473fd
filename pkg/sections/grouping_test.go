package sections_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/sections"
)

func TestGroupFields_SavedGroupsOrderedByMinimumOrder(t *testing.T) {
	defs := model.Definitions{
		"a":      {Placeholder: "a", Group: model.ParseGroup("Parents|2"), Order: model.IntPtr(3)},
		"b":      {Placeholder: "b", Group: model.ParseGroup("Child|1"), Order: model.IntPtr(1)},
		"c":      {Placeholder: "c", Group: model.ParseGroup("Parents|2"), Order: model.IntPtr(0)},
		"d":      {Placeholder: "d", Group: model.ParseGroup("merged_hidden_full"), Order: model.IntPtr(-5)},
		"e":      {Placeholder: "e"},
		"broken": {Placeholder: "broken", Group: model.ParseGroup("Child|oops"), Order: model.IntPtr(2)},
	}

	got := sections.GroupFields(defs)
	want := []model.Section{
		{ID: "group-1", Name: "Parents", Fields: []string{"c", "a"}, ColorIndex: 2},
		{ID: "group-2", Name: "Child", Fields: []string{"b", "broken"}, ColorIndex: 1},
		{ID: "group-3", Name: "ข้อมูลทั่วไป", Fields: []string{"e"}, ColorIndex: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sections mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupFields_TiesResolveByFirstSeen(t *testing.T) {
	defs := model.Definitions{
		"y": {Placeholder: "y", Group: model.ParseGroup("Second"), Order: model.IntPtr(5)},
		"x": {Placeholder: "x", Group: model.ParseGroup("First"), Order: model.IntPtr(5)},
	}

	got := sections.GroupFields(defs)
	if len(got) != 2 || got[0].Name != "First" || got[1].Name != "Second" {
		t.Fatalf("unexpected tie order: %+v", got)
	}
}

func TestGroupFields_EntityFallback(t *testing.T) {
	defs := model.Definitions{
		"father_name": {Placeholder: "father_name", Entity: model.EntityFather},
		"mother_name": {Placeholder: "mother_name", Entity: model.EntityMother},
	}

	got := sections.GroupFields(defs)
	want := []model.Section{
		{ID: "entity-mother", Name: "ข้อมูลมารดา", Fields: []string{"mother_name"}, ColorIndex: 0},
		{ID: "entity-father", Name: "ข้อมูลบิดา", Fields: []string{"father_name"}, ColorIndex: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sections mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupFields_UnknownEntityIsGeneralAndLocaleApplies(t *testing.T) {
	defs := model.Definitions{
		"w": {Placeholder: "w", Entity: "witness", Order: model.IntPtr(2)},
		"k": {Placeholder: "k", Entity: model.EntityChild, Order: model.IntPtr(1)},
		"h": {Placeholder: "h", Entity: model.EntityChild, Group: model.ParseGroup("radio_child_x")},
	}

	got := sections.GroupFields(defs, sections.WithLocale("en-US"))
	want := []model.Section{
		{ID: "entity-child", Name: "Child", Fields: []string{"k"}, ColorIndex: 0},
		{ID: "entity-general", Name: "General", Fields: []string{"w"}, ColorIndex: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sections mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupFields_IdempotentThroughAssign(t *testing.T) {
	defs := model.Definitions{
		"a": {Placeholder: "a", Entity: model.EntityMother, Order: model.IntPtr(0)},
		"b": {Placeholder: "b", Entity: model.EntityChild, Order: model.IntPtr(1)},
		"c": {Placeholder: "c", Entity: model.EntityMother, Order: model.IntPtr(2)},
		"d": {Placeholder: "d", Group: model.ParseGroup("merged_hidden_a")},
	}

	first := sections.GroupFields(defs)
	board := sections.NewBoard(first)
	board.ReorderField("entity-mother", 0, 1)

	assigned := board.Assign(defs)
	second := sections.GroupFields(assigned)
	third := sections.GroupFields(sections.NewBoard(second).Assign(assigned))

	ignoreID := cmpopts.IgnoreFields(model.Section{}, "ID")
	if diff := cmp.Diff(board.Sections(), second, ignoreID); diff != "" {
		t.Fatalf("regrouped sections differ from board (-board +regrouped):\n%s", diff)
	}
	if diff := cmp.Diff(second, third, ignoreID); diff != "" {
		t.Fatalf("grouping not idempotent (-second +third):\n%s", diff)
	}
	if assigned["d"].Group.String() != "merged_hidden_a" {
		t.Fatalf("hidden group rewritten: %q", assigned["d"].Group.String())
	}
}
