package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func rec(email string, valid bool, row int) EmailRecord {
	return EmailRecord{Email: email, IsValid: valid, OriginalRow: row}
}

func TestMergeRecords(t *testing.T) {
	existing := []EmailRecord{rec("a@x.com", true, 2), rec("b@x.com", true, 3)}
	incoming := []EmailRecord{rec("b@x.com", true, 2), rec("c@x.com", true, 3), rec("c@x.com", true, 4)}

	got := MergeRecords(existing, incoming)
	want := []EmailRecord{rec("a@x.com", true, 2), rec("b@x.com", true, 3), rec("c@x.com", true, 3)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}

	if len(existing) != 2 || len(incoming) != 3 {
		t.Error("inputs were modified")
	}
}

func TestMergeRecords_EmptySides(t *testing.T) {
	in := []EmailRecord{rec("a@x.com", true, 2)}

	if diff := cmp.Diff(in, MergeRecords(nil, in)); diff != "" {
		t.Errorf("nil existing (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(in, MergeRecords(in, nil)); diff != "" {
		t.Errorf("nil incoming (-want +got):\n%s", diff)
	}
}

func TestDeduplicate(t *testing.T) {
	in := []EmailRecord{
		rec("a@x.com", true, 2),
		rec("b@x.com", true, 3),
		rec("bad", false, 4),
		rec("a@x.com", true, 5),
		rec("bad", false, 6),
	}

	got, removed := Deduplicate(in)

	want := []EmailRecord{
		{Email: "a@x.com", IsValid: true, IsDuplicate: true, OriginalRow: 2},
		rec("b@x.com", true, 3),
		rec("bad", false, 4),
		rec("bad", false, 6),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dedupe mismatch (-want +got):\n%s", diff)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if in[0].IsDuplicate {
		t.Error("input record was modified")
	}
}

func TestDeduplicate_Idempotent(t *testing.T) {
	in := []EmailRecord{rec("a@x.com", true, 2), rec("a@x.com", true, 3), rec("c@x.com", true, 4)}

	once, _ := Deduplicate(in)
	twice, removed := Deduplicate(once)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second pass changed output (-once +twice):\n%s", diff)
	}
	if removed != 0 {
		t.Errorf("second pass removed %d, want 0", removed)
	}
}
