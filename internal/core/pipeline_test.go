package core

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var allOn = ProcessingOptions{RemoveDuplicates: true, RemoveInvalid: true, SortAlphabetically: true}

func TestProcessEmails_AllStepsEnabled(t *testing.T) {
	data := tableFromStrings([][]string{
		{"Email"},
		{"A@x.com"},
		{"bad"},
		{"a@x.com"},
	})

	res, err := ProcessEmails(data, 0, allOn, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []EmailRecord{{Email: "a@x.com", IsValid: true, IsDuplicate: true, OriginalRow: 2}}
	if diff := cmp.Diff(want, res.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	wantStats := ProcessingStats{TotalEmails: 3, InvalidEmails: 1, DuplicatesRemoved: 1}
	if res.Stats != wantStats {
		t.Errorf("stats = %+v, want %+v", res.Stats, wantStats)
	}
}

func TestProcessEmails_KeepInvalidDuplicates(t *testing.T) {
	data := tableFromStrings([][]string{
		{"Email"},
		{"bad"},
		{"ok@x.com"},
		{"bad"},
	})
	opts := ProcessingOptions{RemoveDuplicates: true}

	res, err := ProcessEmails(data, 0, opts, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []EmailRecord{
		{Email: "bad", OriginalRow: 2},
		{Email: "ok@x.com", IsValid: true, OriginalRow: 3},
		{Email: "bad", OriginalRow: 4},
	}
	if diff := cmp.Diff(want, res.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	if res.Stats.DuplicatesRemoved != 0 {
		t.Errorf("DuplicatesRemoved = %d, want 0", res.Stats.DuplicatesRemoved)
	}
}

func TestProcessEmails_MergeWithExisting(t *testing.T) {
	existing := []EmailRecord{
		{Email: "z@x.com", IsValid: true, OriginalRow: 2},
		{Email: "b@x.com", IsValid: true, OriginalRow: 3},
	}
	data := tableFromStrings([][]string{
		{"mail"},
		{"b@x.com"},
		{"c@x.com"},
	})

	res, err := ProcessEmails(data, 0, ProcessingOptions{}, existing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []string
	for _, r := range res.Records {
		got = append(got, r.Email)
	}
	if diff := cmp.Diff([]string{"z@x.com", "b@x.com", "c@x.com"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if res.MergeDropped != 1 {
		t.Errorf("MergeDropped = %d, want 1", res.MergeDropped)
	}
	if res.Stats.DuplicatesRemoved != 0 {
		t.Errorf("merge drops must not count as duplicates, got %d", res.Stats.DuplicatesRemoved)
	}
	if len(existing) != 2 {
		t.Error("existing was modified")
	}
}

func TestProcessEmails_SortedAndUnique(t *testing.T) {
	data := tableFromStrings([][]string{
		{"E-mail"},
		{"c@x.com"},
		{"b@x.com"},
		{"c@x.com"},
		{"a@x.com"},
	})

	res, err := ProcessEmails(data, 0, allOn, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := map[string]bool{}
	for i, r := range res.Records {
		if seen[r.Email] {
			t.Errorf("duplicate %q in output", r.Email)
		}
		seen[r.Email] = true
		if i > 0 && res.Records[i-1].Email > r.Email {
			t.Errorf("output not sorted at %d: %q > %q", i, res.Records[i-1].Email, r.Email)
		}
	}
	if len(res.Records) != 3 {
		t.Errorf("got %d records, want 3", len(res.Records))
	}
}

func TestProcessEmails_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    Table
		col     int
		opts    ProcessingOptions
		wantErr error
	}{
		{"header only", tableFromStrings([][]string{{"Email"}}), 0, allOn, ErrNoEmails},
		{"column out of range", tableFromStrings([][]string{{"Email"}, {"a@x.com"}}), 3, allOn, ErrInvalidInput},
		{"everything invalid", tableFromStrings([][]string{{"Email"}, {"x"}, {"y"}}), 0, allOn, ErrNoValidEmails},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ProcessEmails(tt.data, tt.col, tt.opts, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAccumulateRecords(t *testing.T) {
	out := []EmailRecord{{Email: "b@x.com"}, {Email: "a@x.com"}}

	if diff := cmp.Diff(out, AccumulateRecords(nil, out)); diff != "" {
		t.Errorf("first run should be taken as is (-want +got):\n%s", diff)
	}

	ws := []EmailRecord{{Email: "a@x.com"}, {Email: "c@x.com"}}
	got := AccumulateRecords(ws, out)
	want := []EmailRecord{{Email: "a@x.com"}, {Email: "c@x.com"}, {Email: "b@x.com"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("accumulate mismatch (-want +got):\n%s", diff)
	}
}
