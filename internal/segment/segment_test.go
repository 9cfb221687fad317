package segment

import (
	"strings"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{"shorter than limit", "hello", 10, []string{"hello"}},
		{"exact multiple", "abcdef", 3, []string{"abc", "def"}},
		{"remainder chunk", "abcdefg", 3, []string{"abc", "def", "g"}},
		{"limit of one", "abc", 1, []string{"a", "b", "c"}},
		{"empty input yields no chunks", "", 5, nil},
		{"non-positive limit returns input whole", "abc", 0, []string{"abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.text, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d chunks %q, want %d", len(got), got, len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("chunk %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplitConcatenationEquality(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet ", 300)
	limit := 2000

	chunks := Split(text, limit)

	wantCount := (len([]rune(text)) + limit - 1) / limit
	if len(chunks) != wantCount {
		t.Errorf("expected %d chunks, got %d", wantCount, len(chunks))
	}

	for i, chunk := range chunks {
		if chunk == "" {
			t.Errorf("chunk %d is empty", i)
		}
		if n := len([]rune(chunk)); n > limit {
			t.Errorf("chunk %d has %d runes, limit %d", i, n, limit)
		}
	}

	if strings.Join(chunks, "") != text {
		t.Error("concatenated chunks differ from input")
	}
}

func TestSplitDoesNotBreakRunes(t *testing.T) {
	text := "héllo wörld ありがとう"

	chunks := Split(text, 4)

	for i, chunk := range chunks {
		if !strings.Contains(text, chunk) {
			t.Errorf("chunk %d %q broke a rune boundary", i, chunk)
		}
	}

	if strings.Join(chunks, "") != text {
		t.Error("concatenated chunks differ from input")
	}
}
