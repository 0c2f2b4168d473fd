package sections_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/sections"
)

func newTestBoard() *sections.Board {
	return sections.NewBoard([]model.Section{
		{ID: "s1", Name: "One", Fields: []string{"A", "B", "C"}, ColorIndex: 0},
		{ID: "s2", Name: "Two", Fields: []string{"D"}, ColorIndex: 1},
		{ID: "s3", Name: "Three", Fields: []string{}, ColorIndex: 2},
	}, sections.WithIDFunc(func() string { return "new-id" }))
}

func fieldsOf(b *sections.Board) map[string][]string {
	out := make(map[string][]string)
	for _, section := range b.Sections() {
		out[section.ID] = section.Fields
	}
	return out
}

func assertUnique(t *testing.T, b *sections.Board) {
	t.Helper()
	seen := make(map[string]string)
	for _, section := range b.Sections() {
		for _, key := range section.Fields {
			if prev, ok := seen[key]; ok {
				t.Fatalf("field %q present in %s and %s", key, prev, section.ID)
			}
			seen[key] = section.ID
		}
	}
}

func TestBoard_ReorderFieldLandsAtTargetIndex(t *testing.T) {
	b := newTestBoard()
	if !b.ReorderField("s1", 0, 2) {
		t.Fatalf("expected reorder to apply")
	}
	if diff := cmp.Diff([]string{"B", "C", "A"}, fieldsOf(b)["s1"]); diff != "" {
		t.Fatalf("reorder mismatch (-want +got):\n%s", diff)
	}

	b.ReorderField("s1", 2, 0)
	if diff := cmp.Diff([]string{"A", "B", "C"}, fieldsOf(b)["s1"]); diff != "" {
		t.Fatalf("backward reorder mismatch (-want +got):\n%s", diff)
	}

	if b.ReorderField("s1", 7, 0) {
		t.Fatalf("expected out of range source to be rejected")
	}
}

func TestBoard_DropFieldShiftsForwardSlots(t *testing.T) {
	b := newTestBoard()
	b.DropField("s1", 0, 2)
	if diff := cmp.Diff([]string{"B", "A", "C"}, fieldsOf(b)["s1"]); diff != "" {
		t.Fatalf("drop mismatch (-want +got):\n%s", diff)
	}

	b = newTestBoard()
	b.DropField("s1", 0, 3)
	if diff := cmp.Diff([]string{"B", "C", "A"}, fieldsOf(b)["s1"]); diff != "" {
		t.Fatalf("drop after last mismatch (-want +got):\n%s", diff)
	}
}

func TestBoard_AddFieldKeepsKeysUnique(t *testing.T) {
	b := newTestBoard()

	b.AddFieldToSection("s2", "A")
	b.AddFieldToSection("s3", "A")
	b.AddFieldToSection("s3", "A")
	b.AddFieldToSection("s3", "Z")
	assertUnique(t, b)

	want := map[string][]string{
		"s1": {"B", "C"},
		"s2": {"D"},
		"s3": {"A", "Z"},
	}
	if diff := cmp.Diff(want, fieldsOf(b)); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}

	if b.AddFieldToSection("missing", "B") {
		t.Fatalf("expected unknown section to be rejected")
	}
	if diff := cmp.Diff(want, fieldsOf(b)); diff != "" {
		t.Fatalf("unknown section mutated board (-want +got):\n%s", diff)
	}
}

func TestBoard_NewBoardDropsDuplicates(t *testing.T) {
	b := sections.NewBoard([]model.Section{
		{ID: "s1", Fields: []string{"A", "B"}},
		{ID: "s2", Fields: []string{"B", "C"}},
	})
	assertUnique(t, b)
	if diff := cmp.Diff([]string{"C"}, fieldsOf(b)["s2"]); diff != "" {
		t.Fatalf("duplicate not dropped (-want +got):\n%s", diff)
	}
}

func TestBoard_RemoveAndMove(t *testing.T) {
	b := newTestBoard()

	if !b.RemoveFieldFromSection("s1", "B") {
		t.Fatalf("expected removal")
	}
	if b.RemoveFieldFromSection("s2", "A") {
		t.Fatalf("expected removal from wrong section to be a no-op")
	}

	b.MoveFieldToSection("s1", "s2", "C", 0)
	b.MoveFieldToSection("s1", "s2", "A", 99)
	assertUnique(t, b)

	want := map[string][]string{
		"s1": {},
		"s2": {"C", "D", "A"},
		"s3": {},
	}
	if diff := cmp.Diff(want, fieldsOf(b)); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}

	if b.MoveFieldToSection("s1", "s3", "D", 0) {
		t.Fatalf("expected move of a field absent from source to be rejected")
	}
}

func TestBoard_MoveSectionBoundaries(t *testing.T) {
	b := newTestBoard()

	if b.MoveSection("s1", sections.Left) {
		t.Fatalf("expected left move at index 0 to be a no-op")
	}
	if b.MoveSection("s3", sections.Right) {
		t.Fatalf("expected right move at last index to be a no-op")
	}
	if !b.MoveSection("s1", sections.Right) {
		t.Fatalf("expected right move to apply")
	}

	var ids []string
	for _, section := range b.Sections() {
		ids = append(ids, section.ID)
	}
	if diff := cmp.Diff([]string{"s2", "s1", "s3"}, ids); diff != "" {
		t.Fatalf("section order mismatch (-want +got):\n%s", diff)
	}
}

func TestBoard_SectionCRUD(t *testing.T) {
	b := newTestBoard()

	added := b.AddSection("")
	if added.ID != "new-id" || added.Name != "ส่วนที่ 4" || added.ColorIndex != 3 {
		t.Fatalf("unexpected added section: %+v", added)
	}

	if !b.RenameSection("s2", " Parents ") {
		t.Fatalf("expected rename")
	}
	if b.RenameSection("s2", "   ") || b.RenameSection("s2", "a|b") {
		t.Fatalf("expected invalid names to be rejected")
	}
	if !b.ChangeSectionColor("s2", 9) {
		t.Fatalf("expected recolor")
	}
	if !b.DeleteSection("s1") {
		t.Fatalf("expected delete")
	}

	got := b.Sections()
	want := []model.Section{
		{ID: "s2", Name: "Parents", Fields: []string{"D"}, ColorIndex: 1},
		{ID: "s3", Name: "Three", Fields: []string{}, ColorIndex: 2},
		{ID: "new-id", Name: "ส่วนที่ 4", Fields: []string{}, ColorIndex: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sections mismatch (-want +got):\n%s", diff)
	}

	defs := model.Definitions{"A": {}, "B": {}, "D": {}, "H": {Group: model.ParseGroup("radio_hidden_x")}}
	if diff := cmp.Diff([]string{"A", "B"}, b.Unassigned(defs)); diff != "" {
		t.Fatalf("unassigned mismatch (-want +got):\n%s", diff)
	}
}

func TestBoard_ApplyDrop(t *testing.T) {
	b := newTestBoard()

	cases := []struct {
		payload string
		applied bool
	}{
		{payload: `{not json`, applied: false},
		{payload: `{"action":"teleport"}`, applied: false},
		{payload: `{"action":"reorder","sectionId":"s1","fromIndex":0,"toIndex":2}`, applied: true},
		{payload: `{"action":"move","fromSectionId":"s1","toSectionId":"s3","fieldKey":"B","toIndex":0}`, applied: true},
		{payload: `{"action":"add","sectionId":"s3","fieldKey":"D"}`, applied: true},
		{payload: `{"action":"remove","sectionId":"s1","fieldKey":"C"}`, applied: true},
		{payload: `{"action":"move_section","sectionId":"s3","direction":"left"}`, applied: true},
	}
	for _, tc := range cases {
		if got := b.ApplyDrop([]byte(tc.payload)); got != tc.applied {
			t.Fatalf("payload %s: applied=%v, want %v", tc.payload, got, tc.applied)
		}
	}

	want := map[string][]string{
		"s1": {"A"},
		"s2": {},
		"s3": {"B", "D"},
	}
	if diff := cmp.Diff(want, fieldsOf(b)); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if ids := b.Sections(); ids[1].ID != "s3" {
		t.Fatalf("expected s3 moved left, got %+v", ids)
	}
}

func TestBoard_SubscribeReceivesSnapshots(t *testing.T) {
	b := newTestBoard()

	var calls [][]model.Section
	unsubscribe := b.Subscribe(func(snapshot []model.Section) {
		calls = append(calls, snapshot)
	})

	b.MoveSection("s1", sections.Left)
	b.AddFieldToSection("s2", "A")
	unsubscribe()
	b.AddFieldToSection("s3", "A")

	if len(calls) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(calls))
	}
	calls[0][0].Fields[0] = "mutated"
	if fieldsOf(b)["s1"][0] == "mutated" {
		t.Fatalf("listener snapshot aliases board state")
	}
}

func TestBoard_AssignRecomputesOrderAndGroup(t *testing.T) {
	b := sections.NewBoard([]model.Section{
		{ID: "s1", Name: "Parents", Fields: []string{"mother", "father"}, ColorIndex: 4},
		{ID: "s2", Name: "Child", Fields: []string{"child", "ghost"}, ColorIndex: 0},
	})
	defs := model.Definitions{
		"father": {Placeholder: "father", Order: model.IntPtr(0)},
		"mother": {Placeholder: "mother"},
		"child":  {Placeholder: "child", Group: model.ParseGroup("Old|3")},
		"loose":  {Placeholder: "loose", Group: model.ParseGroup("Old|3"), Order: model.IntPtr(1)},
		"part":   {Placeholder: "part", Group: model.ParseGroup("merged_hidden_child")},
	}

	got := b.Assign(defs)

	want := map[string]string{
		"mother": "0 Parents|4",
		"father": "1 Parents|4",
		"child":  "2 Child|0",
		"loose":  "3 ",
		"part":   "4 merged_hidden_child",
	}
	summary := make(map[string]string, len(got))
	for key, def := range got {
		summary[key] = fmt.Sprintf("%d %s", def.OrderOr(-1), def.Group.String())
	}
	if diff := cmp.Diff(want, summary); diff != "" {
		t.Fatalf("assignment mismatch (-want +got):\n%s", diff)
	}
	if _, ok := got["ghost"]; ok {
		t.Fatalf("assign must not invent definitions for unknown keys")
	}
	if defs["mother"].Order != nil {
		t.Fatalf("assign mutated input definitions")
	}
}
