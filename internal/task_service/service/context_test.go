package service

import (
	"testing"

	"gorm.io/datatypes"
)

func TestParseParameters(t *testing.T) {
	t.Run("fragment is sorted and repeated per key", func(t *testing.T) {
		res := ParseParameters(datatypes.JSON(`{"region":"EU","budget":1000}`))
		if res.Err != nil {
			t.Fatalf("unexpected parse error: %v", res.Err)
		}
		if got, want := res.Fragment, "budget = {budget},region = {region},"; got != want {
			t.Errorf("Fragment = %q, want %q", got, want)
		}
		if len(res.Values) != 2 {
			t.Errorf("Values has %d entries, want 2", len(res.Values))
		}
	})

	t.Run("empty column yields empty result", func(t *testing.T) {
		res := ParseParameters(nil)
		if res.Err != nil || res.Fragment != "" || len(res.Values) != 0 {
			t.Errorf("empty input must parse to empty result, got %+v", res)
		}
	})

	t.Run("malformed document is reported, not fatal", func(t *testing.T) {
		res := ParseParameters(datatypes.JSON(`{"region":`))
		if res.Err == nil {
			t.Fatal("expected parse error for malformed JSON")
		}
		if res.Fragment != "" || len(res.Values) != 0 {
			t.Errorf("malformed input must yield empty params, got %+v", res)
		}
	})
}

func TestParseToolIDs(t *testing.T) {
	ids, err := ParseToolIDs(datatypes.JSON(`[3,1,2]`))
	if err != nil {
		t.Fatalf("ParseToolIDs() error = %v", err)
	}
	if len(ids) != 3 || ids[0] != 3 || ids[1] != 1 || ids[2] != 2 {
		t.Errorf("ids = %v, want [3 1 2]", ids)
	}

	ids, err = ParseToolIDs(nil)
	if err != nil || ids != nil {
		t.Errorf("empty column must yield no tools, got %v, %v", ids, err)
	}

	if _, err := ParseToolIDs(datatypes.JSON(`{"not":"array"}`)); err == nil {
		t.Error("expected error for non-array tool column")
	}
}
