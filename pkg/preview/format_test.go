package preview_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/preview"
)

func TestFormatDate(t *testing.T) {
	cases := []struct {
		value, format, want string
	}{
		{"2023-05-01", "dd/mm/yyyy", "01/05/2023"},
		{"2023-05-01", "dd-mm-yyyy", "01-05-2023"},
		{"2023-05-01", "yyyy-mm-dd", "2023-05-01"},
		{"2023-05-01", "d MMMM yyyy", "1 พฤษภาคม 2023"},
		{"2023-05-01", "d MMMM bbbb", "1 พฤษภาคม 2566"},
		{"2023-12-09", "d MMM bb", "9 ธ.ค. 66"},
		{"2023-05-01T10:30:00Z", "yyyy-mm-dd", "2023-05-01"},
		{"2023-05-01", "", "01/05/2023"},
		{"not a date", "dd/mm/yyyy", "not a date"},
		{"", "dd/mm/yyyy", ""},
	}
	for _, tc := range cases {
		if got := preview.FormatDate(tc.value, tc.format); got != tc.want {
			t.Fatalf("FormatDate(%q, %q) = %q, want %q", tc.value, tc.format, got, tc.want)
		}
	}
}

func TestSplitMerged(t *testing.T) {
	withSep := model.FieldDefinition{MergedFields: []string{"a", "b", "c"}, Separator: "-"}
	if diff := cmp.Diff([]string{"1", "2", ""}, preview.SplitMerged("1-2", withSep)); diff != "" {
		t.Fatalf("short split mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"1", "2", "3-4"}, preview.SplitMerged("1-2-3-4", withSep)); diff != "" {
		t.Fatalf("remainder split mismatch (-want +got):\n%s", diff)
	}

	fixed := model.FieldDefinition{MergedFields: []string{"a", "b", "c"}}
	if diff := cmp.Diff([]string{"ก", "ข", "ค"}, preview.SplitMerged("กขค", fixed)); diff != "" {
		t.Fatalf("fixed width split mismatch (-want +got):\n%s", diff)
	}
	if got := preview.SplitMerged("x", model.FieldDefinition{}); got != nil {
		t.Fatalf("expected nil for definition without sub-fields, got %v", got)
	}
}

func TestSplitJoinRoundTrip(t *testing.T) {
	cases := []struct {
		separator string
		parts     []string
	}{
		{separator: " ", parts: []string{"Somchai", "Dee"}},
		{separator: "/", parts: []string{"12", "", "2566"}},
		{separator: "", parts: []string{"1", "2", "3", "4", "5"}},
	}
	for _, tc := range cases {
		fields := make([]string, len(tc.parts))
		for i := range fields {
			fields[i] = string(rune('a' + i))
		}
		def := model.FieldDefinition{MergedFields: fields, Separator: tc.separator}

		joined := preview.JoinMerged(tc.parts, tc.separator)
		if diff := cmp.Diff(tc.parts, preview.SplitMerged(joined, def)); diff != "" {
			t.Fatalf("round trip %q mismatch (-want +got):\n%s", joined, diff)
		}
	}
}

func TestDocument_InjectsStyleIntoHead(t *testing.T) {
	out, err := preview.Document("<p>สวัสดี</p>", preview.StyleSheet)
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	head := out[strings.Index(out, "<head>"):strings.Index(out, "</head>")]
	if !strings.Contains(head, `<style data-docfill="preview">`) {
		t.Fatalf("style not injected into head: %s", out)
	}
	if !strings.Contains(out, "<body><p>สวัสดี</p></body>") {
		t.Fatalf("fragment not wrapped in body: %s", out)
	}
}

func TestSplitPage(t *testing.T) {
	page, err := preview.SplitPage(`<html><head><title>x</title><style>p{color:red}</style></head><body><p>Hi</p></body></html>`)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	want := preview.Page{Full: true, Head: "<style>p{color:red}</style>", Body: "<p>Hi</p>"}
	if diff := cmp.Diff(want, page); diff != "" {
		t.Fatalf("page mismatch (-want +got):\n%s", diff)
	}

	fragment, err := preview.SplitPage("<p>frag</p>")
	if err != nil || fragment.Full || fragment.Body != "<p>frag</p>" {
		t.Fatalf("unexpected fragment page %+v %v", fragment, err)
	}
}

func TestDeferred_CommitsOnlyLatest(t *testing.T) {
	var mu sync.Mutex
	var commits []string
	done := make(chan struct{}, 4)

	d := preview.NewDeferred(nil, preview.Compile("{{v}}"), 20*time.Millisecond, func(res preview.Result) {
		mu.Lock()
		commits = append(commits, res.HTML)
		mu.Unlock()
		done <- struct{}{}
	})
	defer d.Close()

	d.Schedule(preview.Input{Values: model.FormValues{"v": "1"}})
	d.Schedule(preview.Input{Values: model.FormValues{"v": "2"}})
	last := d.Schedule(preview.Input{Values: model.FormValues{"v": "3"}})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for commit")
	}
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]string{"3"}, commits); diff != "" {
		t.Fatalf("commits mismatch (-want +got):\n%s", diff)
	}
	if res, gen := d.Latest(); gen != last || res.HTML != "3" {
		t.Fatalf("latest = %q@%d, want 3@%d", res.HTML, gen, last)
	}
}

func TestDeferred_CloseDropsPending(t *testing.T) {
	called := make(chan struct{}, 1)
	d := preview.NewDeferred(nil, preview.Compile("{{v}}"), 10*time.Millisecond, func(preview.Result) {
		called <- struct{}{}
	})
	d.Schedule(preview.Input{})
	d.Close()

	select {
	case <-called:
		t.Fatalf("commit after close")
	case <-time.After(50 * time.Millisecond):
	}
}
