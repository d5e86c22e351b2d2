package tools

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"Colabi/internal/config"
)

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry(config.ToolsConfig{}, nil)

	t.Run("instances are cached", func(t *testing.T) {
		first, err := r.Resolve([]uint{uint(KindSerperSearch)})
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		second, err := r.Resolve([]uint{uint(KindSerperSearch)})
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if first[0] != second[0] {
			t.Error("repeated resolution must return the cached instance")
		}
	})

	t.Run("unknown id rejected", func(t *testing.T) {
		if _, err := r.Resolve([]uint{999}); !errors.Is(err, ErrUnknownTool) {
			t.Errorf("expected ErrUnknownTool, got %v", err)
		}
	})

	t.Run("order preserved", func(t *testing.T) {
		resolved, err := r.Resolve([]uint{uint(KindWikipedia), uint(KindSerperSearch)})
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if resolved[0].Metadata().Name != "wikipedia" || resolved[1].Metadata().Name != "search_internet" {
			t.Errorf("resolution order wrong: %s, %s", resolved[0].Metadata().Name, resolved[1].Metadata().Name)
		}
	})
}

func TestTruncateRunes(t *testing.T) {
	t.Run("short text unchanged", func(t *testing.T) {
		if got := truncateRunes("hello", 500); got != "hello" {
			t.Errorf("truncateRunes() = %q", got)
		}
	})

	t.Run("at limit unchanged", func(t *testing.T) {
		s := strings.Repeat("a", 500)
		if got := truncateRunes(s, 500); got != s {
			t.Errorf("text at the limit must not be truncated")
		}
	})

	t.Run("multibyte text truncates on rune boundary", func(t *testing.T) {
		s := strings.Repeat("日", 600)
		got := truncateRunes(s, 500)
		if !utf8.ValidString(got) {
			t.Fatal("truncated text is not valid UTF-8")
		}
		if !strings.HasSuffix(got, "...") {
			t.Errorf("truncated text missing ellipsis: %q", got[len(got)-9:])
		}
		if n := utf8.RuneCountInString(strings.TrimSuffix(got, "...")); n != 500 {
			t.Errorf("kept %d runes, want 500", n)
		}
	})
}

func TestFind(t *testing.T) {
	r := NewRegistry(config.ToolsConfig{}, nil)
	resolved, err := r.Resolve([]uint{uint(KindSerperSearch), uint(KindWikipedia)})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if tool := Find(resolved, "wikipedia"); tool == nil {
		t.Error("Find() did not locate a resolved tool")
	}
	if tool := Find(resolved, "does_not_exist"); tool != nil {
		t.Error("Find() located a tool that was never resolved")
	}
}
