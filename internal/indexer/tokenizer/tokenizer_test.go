package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegmentWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"english", "Hello World", []string{"hello", "world"}},
		{"punctuation", "Hello, world! It's me.", []string{"hello", "world", "it", "s", "me"}},
		{"russian", "Привет МИР", []string{"привет", "мир"}},
		{"yo", "Ёлка ёж", []string{"ёлка", "ёж"}},
		{"digits", "User 12345 id", []string{"user", "12345", "id"}},
		{"mixed script boundary", "Go-разработка", []string{"go", "разработка"}},
		{"other alphabets split", "naïve straße", []string{"na", "ve", "stra", "e"}},
		{"empty", "", nil},
		{"only separators", " ,.;!? ", nil},
		{"invalid utf8", "abc\xff", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SegmentWords(tt.text))
		})
	}
}

func TestSegmentWordsComposesDecomposedYo(t *testing.T) {
	// е followed by U+0308 combining diaeresis composes to ё under NFC.
	assert.Equal(t, []string{"ёж"}, SegmentWords("е\u0308ж"))
}

func BenchmarkSegmentWords(b *testing.B) {
	text := "Поисковая система Search Engine строит индекс 2024 года, и отвечает на запросы."
	for i := 0; i < b.N; i++ {
		SegmentWords(text)
	}
}
