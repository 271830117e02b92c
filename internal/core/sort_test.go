package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSortRecords(t *testing.T) {
	in := []EmailRecord{
		{Email: "zoe@x.com", OriginalRow: 2},
		{Email: "émile@x.com", OriginalRow: 3},
		{Email: "adam@x.com", OriginalRow: 4},
		{Email: "adam@x.com", OriginalRow: 5},
		{Email: "eve@x.com", OriginalRow: 6},
	}

	got := SortRecords(in)

	want := []EmailRecord{
		{Email: "adam@x.com", OriginalRow: 4},
		{Email: "adam@x.com", OriginalRow: 5},
		{Email: "émile@x.com", OriginalRow: 3},
		{Email: "eve@x.com", OriginalRow: 6},
		{Email: "zoe@x.com", OriginalRow: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sort mismatch (-want +got):\n%s", diff)
	}

	if in[0].Email != "zoe@x.com" {
		t.Error("input slice was reordered")
	}
}

func TestSortRecords_Empty(t *testing.T) {
	if got := SortRecords(nil); len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}
