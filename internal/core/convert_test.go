package core

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestToPgText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  pgtype.Text
	}{
		{"value", "list.csv", pgtype.Text{String: "list.csv", Valid: true}},
		{"trimmed", "  list.csv ", pgtype.Text{String: "list.csv", Valid: true}},
		{"empty", "", pgtype.Text{}},
		{"whitespace", "   ", pgtype.Text{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToPgText(tt.input); got != tt.want {
				t.Errorf("ToPgText(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestToPgUUID_RoundTrip(t *testing.T) {
	const id = "0b9f5c3e-8d4a-4e39-9a57-5b1f1f7f6d21"

	u := ToPgUUID(id)
	if !u.Valid {
		t.Fatalf("ToPgUUID(%q) is invalid", id)
	}
	if got := PgUUIDToString(u); got != id {
		t.Errorf("PgUUIDToString = %q, want %q", got, id)
	}
}

func TestToPgUUID_Invalid(t *testing.T) {
	for _, input := range []string{"", "not-a-uuid", "1234"} {
		if u := ToPgUUID(input); u.Valid {
			t.Errorf("ToPgUUID(%q) should be invalid", input)
		}
	}
	if got := PgUUIDToString(pgtype.UUID{}); got != "" {
		t.Errorf("PgUUIDToString(invalid) = %q, want empty", got)
	}
}

func TestToPgInt4(t *testing.T) {
	tests := []struct {
		input int
		want  int32
	}{
		{0, 0},
		{42, 42},
		{-3, 0},
		{1 << 40, 1<<31 - 1},
	}

	for _, tt := range tests {
		got := ToPgInt4(tt.input)
		if !got.Valid || got.Int32 != tt.want {
			t.Errorf("ToPgInt4(%d) = %+v, want %d", tt.input, got, tt.want)
		}
	}
}
