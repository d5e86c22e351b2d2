package retrieval

import (
	"strings"
	"testing"
)

func TestSplitText(t *testing.T) {
	t.Run("short text is a single chunk", func(t *testing.T) {
		chunks := SplitText("hello world", 100, 10)
		if len(chunks) != 1 || chunks[0] != "hello world" {
			t.Errorf("chunks = %v", chunks)
		}
	})

	t.Run("chunks overlap by the configured amount", func(t *testing.T) {
		text := "abcdefghij" // 10 runes
		chunks := SplitText(text, 4, 2)
		want := []string{"abcd", "cdef", "efgh", "ghij"}
		if len(chunks) != len(want) {
			t.Fatalf("chunks = %v, want %v", chunks, want)
		}
		for i := range want {
			if chunks[i] != want[i] {
				t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
			}
		}
	})

	t.Run("multibyte text splits on runes", func(t *testing.T) {
		text := strings.Repeat("世界和平", 3) // 12 runes
		chunks := SplitText(text, 5, 0)
		if len(chunks) != 3 {
			t.Fatalf("chunks = %v", chunks)
		}
		for _, chunk := range chunks {
			if !strings.HasPrefix("世界和平世界和平世界和平", chunk) && len([]rune(chunk)) > 5 {
				t.Errorf("chunk %q exceeds rune budget", chunk)
			}
		}
	})

	t.Run("whitespace-only chunks dropped", func(t *testing.T) {
		chunks := SplitText("ab    cd", 2, 0)
		for _, chunk := range chunks {
			if strings.TrimSpace(chunk) == "" {
				t.Errorf("whitespace chunk survived: %q", chunk)
			}
		}
	})

	t.Run("invalid overlap falls back to zero", func(t *testing.T) {
		chunks := SplitText("abcdef", 2, 5)
		want := []string{"ab", "cd", "ef"}
		if len(chunks) != len(want) {
			t.Fatalf("chunks = %v, want %v", chunks, want)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if chunks := SplitText("", 10, 2); chunks != nil {
			t.Errorf("chunks = %v, want nil", chunks)
		}
	})
}

func TestExtractText(t *testing.T) {
	t.Run("plain text passes through", func(t *testing.T) {
		text, err := ExtractText([]byte("plain notes about the product"))
		if err != nil {
			t.Fatalf("ExtractText() error = %v", err)
		}
		if text != "plain notes about the product" {
			t.Errorf("text = %q", text)
		}
	})

	t.Run("unsupported type rejected", func(t *testing.T) {
		// PNG magic bytes.
		if _, err := ExtractText([]byte("\x89PNG\r\n\x1a\n")); err == nil {
			t.Error("expected error for unsupported document type")
		}
	})
}
