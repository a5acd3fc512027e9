package cdc

import (
	"strings"
	"testing"
	"testing/quick"
)

func TestSQLLiteral_StringEscape(t *testing.T) {
	f := func(s string) bool {
		got := SQLLiteral(s)
		want := "'" + strings.ReplaceAll(s, "'", "''") + "'"
		return got == want
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestSQLLiteral_Null(t *testing.T) {
	if got := SQLLiteral(nil); got != "NULL" {
		t.Errorf("SQLLiteral(nil) = %q, want NULL", got)
	}
}

func TestSQLLiteral_Bool(t *testing.T) {
	if got := SQLLiteral(true); got != "true" {
		t.Errorf("SQLLiteral(true) = %q", got)
	}
	if got := SQLLiteral(false); got != "false" {
		t.Errorf("SQLLiteral(false) = %q", got)
	}
}

func TestSQLLiteral_Number(t *testing.T) {
	cases := map[float64]string{
		42:    "42",
		-7:    "-7",
		3.5:   "3.5",
		0:     "0",
	}
	for in, want := range cases {
		if got := SQLLiteral(in); got != want {
			t.Errorf("SQLLiteral(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestSQLLiteral_Array(t *testing.T) {
	got := SQLLiteral([]any{float64(1), float64(2), float64(3)})
	want := "'{1,2,3}'::integer[]"
	if got != want {
		t.Errorf("array literal = %q, want %q", got, want)
	}
}

func TestSQLLiteral_ArrayOfStrings(t *testing.T) {
	got := SQLLiteral([]any{"a", "b's"})
	want := "'{a,b''s}'::integer[]"
	if got != want {
		t.Errorf("array literal = %q, want %q", got, want)
	}
}

func TestSQLLiteral_ArrayUnsupportedElementPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for unsupported array element")
		}
	}()
	SQLLiteral([]any{map[string]any{"x": 1}})
}

func TestSQLLiteral_Object(t *testing.T) {
	got := SQLLiteral(map[string]any{"a": float64(1)})
	want := `'{"a":1}'`
	if got != want {
		t.Errorf("object literal = %q, want %q", got, want)
	}
}
