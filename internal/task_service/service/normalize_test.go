package service

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestNormalizeColumns(t *testing.T) {
	t.Run("pads short columns with nulls", func(t *testing.T) {
		columns := map[string][]any{
			"name":  {"a", "b", "c"},
			"score": {1},
			"note":  {},
		}
		NormalizeColumns(columns)

		for key, values := range columns {
			if len(values) != 3 {
				t.Errorf("column %q has length %d, want 3", key, len(values))
			}
		}
		if columns["score"][1] != nil || columns["score"][2] != nil {
			t.Error("padding cells must be nil")
		}
	})

	t.Run("idempotent on rectangular input", func(t *testing.T) {
		columns := map[string][]any{
			"a": {"x", "y"},
			"b": {1, 2},
		}
		want := map[string][]any{
			"a": {"x", "y"},
			"b": {1, 2},
		}
		NormalizeColumns(columns)
		NormalizeColumns(columns)
		if !reflect.DeepEqual(columns, want) {
			t.Errorf("rectangular input changed: %v", columns)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		columns := map[string][]any{}
		NormalizeColumns(columns)
		if len(columns) != 0 {
			t.Errorf("empty input changed: %v", columns)
		}
	})
}

func TestExportCSV(t *testing.T) {
	columns := map[string][]any{
		"name":  {"a", "b"},
		"score": {1, nil},
	}
	data, err := ExportCSV(columns)
	if err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("reading produced CSV: %v", err)
	}
	want := [][]string{
		{"name", "score"},
		{"a", "1"},
		{"b", ""},
	}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("records = %v, want %v", records, want)
	}
}

func TestExportCSVNoColumns(t *testing.T) {
	if _, err := ExportCSV(map[string][]any{}); err == nil {
		t.Error("expected error for empty column set")
	}
}

func TestExportXLSX(t *testing.T) {
	columns := map[string][]any{
		"name":  {"a"},
		"score": {42},
	}
	data, err := ExportXLSX(columns)
	if err != nil {
		t.Fatalf("ExportXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("opening produced workbook: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	header, err := f.GetCellValue(sheet, "A1")
	if err != nil {
		t.Fatalf("GetCellValue() error = %v", err)
	}
	if header != "name" {
		t.Errorf("A1 = %q, want %q", header, "name")
	}
	value, err := f.GetCellValue(sheet, "B2")
	if err != nil {
		t.Fatalf("GetCellValue() error = %v", err)
	}
	if value != "42" {
		t.Errorf("B2 = %q, want %q", value, "42")
	}
}
