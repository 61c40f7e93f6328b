package mentions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCount(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		brands []string
		want   map[string]int
	}{
		{
			name:   "no brands",
			text:   "anything at all",
			brands: nil,
			want:   map[string]int{},
		},
		{
			name:   "case insensitive",
			text:   "Coca-Cola is great, coca-cola wins",
			brands: []string{"Coca-Cola"},
			want:   map[string]int{"Coca-Cola": 2},
		},
		{
			name:   "independent per-brand counting",
			text:   "ab",
			brands: []string{"a", "b"},
			want:   map[string]int{"a": 1, "b": 1},
		},
		{
			name:   "overlapping brand names both counted",
			text:   "Cocoa is not Coco",
			brands: []string{"Cocoa", "Coco"},
			want:   map[string]int{"Cocoa": 1, "Coco": 2},
		},
		{
			name:   "partial-word matches count",
			text:   "Pepsico and Pepsi",
			brands: []string{"Pepsi"},
			want:   map[string]int{"Pepsi": 2},
		},
		{
			name:   "blank brands skipped",
			text:   "Pepsi",
			brands: []string{"", "  ", "Pepsi"},
			want:   map[string]int{"Pepsi": 1},
		},
		{
			name:   "regexp metacharacters matched literally",
			text:   "I code in C++ and C",
			brands: []string{"C++"},
			want:   map[string]int{"C++": 1},
		},
		{
			name:   "dot does not act as wildcard",
			text:   "visit example.com or exampleXcom",
			brands: []string{"example.com"},
			want:   map[string]int{"example.com": 1},
		},
		{
			name:   "non-overlapping occurrences of same brand",
			text:   "aaaa",
			brands: []string{"aa"},
			want:   map[string]int{"aa": 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Count(tt.text, tt.brands))
		})
	}
}

func TestHighlight(t *testing.T) {
	t.Run("wraps match and leaves surrounding text plain", func(t *testing.T) {
		got := Highlight("I love Pepsi", []string{"Pepsi"})
		assert.Equal(t, `I love <mark class="brand-highlight">Pepsi</mark>`, got)
	})

	t.Run("keeps original casing of the match", func(t *testing.T) {
		got := Highlight("PEPSI and pepsi", []string{"Pepsi"})
		assert.Equal(t,
			`<mark class="brand-highlight">PEPSI</mark> and <mark class="brand-highlight">pepsi</mark>`,
			got)
	})

	t.Run("escapes markup in surrounding text", func(t *testing.T) {
		got := Highlight(`<b>Pepsi</b> & "friends"`, []string{"Pepsi"})
		assert.Equal(t,
			`&lt;b&gt;<mark class="brand-highlight">Pepsi</mark>&lt;/b&gt; &amp; &#34;friends&#34;`,
			got)
	})

	t.Run("escapes markup inside the matched substring", func(t *testing.T) {
		got := Highlight("drink <Cola> now", []string{"<Cola>"})
		assert.Equal(t,
			`drink <mark class="brand-highlight">&lt;Cola&gt;</mark> now`,
			got)
	})

	t.Run("no nested markers for overlapping brands", func(t *testing.T) {
		got := Highlight("Cocoa powder", []string{"Coco", "Cocoa"})
		// Same start position: the longer brand wins, the shorter is dropped.
		assert.Equal(t, `<mark class="brand-highlight">Cocoa</mark> powder`, got)
	})

	t.Run("no brands escapes only", func(t *testing.T) {
		assert.Equal(t, "1 &lt; 2", Highlight("1 < 2", nil))
	})

	t.Run("multiple distinct brands in one pass", func(t *testing.T) {
		got := Highlight("Pepsi beats Fanta", []string{"Fanta", "Pepsi"})
		assert.Equal(t,
			`<mark class="brand-highlight">Pepsi</mark> beats <mark class="brand-highlight">Fanta</mark>`,
			got)
	})
}
