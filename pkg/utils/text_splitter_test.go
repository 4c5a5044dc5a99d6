package utils

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplitText(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		chunkSize int
		overlap   int
		want      []string
	}{
		{
			name:      "short text returned whole",
			text:      "hello",
			chunkSize: 10,
			overlap:   2,
			want:      []string{"hello"},
		},
		{
			name:      "empty text",
			text:      "",
			chunkSize: 10,
			overlap:   2,
			want:      []string{""},
		},
		{
			name:      "even split with overlap",
			text:      "abcdefghij",
			chunkSize: 4,
			overlap:   2,
			want:      []string{"abcd", "cdef", "efgh", "ghij"},
		},
		{
			name:      "uneven tail kept",
			text:      "abcdefg",
			chunkSize: 4,
			overlap:   2,
			want:      []string{"abcd", "cdef", "efg"},
		},
		{
			name:      "overlap larger than chunk falls back to full step",
			text:      "abcdefgh",
			chunkSize: 3,
			overlap:   5,
			want:      []string{"abc", "def", "gh"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitText(tt.text, tt.chunkSize, tt.overlap)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitTextMultibyte(t *testing.T) {
	text := strings.Repeat("héllo wörld ", 20)
	chunks := SplitText(text, 50, 10)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if !strings.Contains(text, c) {
			t.Errorf("chunk %d split a multibyte rune: %q", i, c)
		}
	}
}
