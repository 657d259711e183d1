package writeback

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditBuffer_ReplaceMiddle(t *testing.T) {
	src := []byte("func A() {}\nfunc B() {}\nfunc C() {}\n")
	b := NewEditBuffer(src)
	require.NoError(t, b.Replace(12, 24, "func B() { return 1 }\n"))

	got, _ := b.Apply()
	assert.Equal(t, "func A() {}\nfunc B() { return 1 }\nfunc C() {}\n", got)
}

func TestEditBuffer_MultipleOutOfOrder(t *testing.T) {
	b := NewEditBuffer([]byte("AAA BBB CCC"))
	require.NoError(t, b.Replace(8, 11, "c"))
	require.NoError(t, b.Replace(0, 3, "aaaaa"))
	require.NoError(t, b.Insert(4, "[x]"))

	got, _ := b.Apply()
	assert.Equal(t, "aaaaa [x]BBB c", got)
	assert.Equal(t, 3, b.Len())
}

func TestEditBuffer_EmptyContent(t *testing.T) {
	b := NewEditBuffer([]byte("AAA\nBBB\nCCC\n"))
	require.NoError(t, b.Replace(4, 8, ""))
	got, _ := b.Apply()
	assert.Equal(t, "AAA\nCCC\n", got)
}

func TestEditBuffer_InsertBeforeReplacement(t *testing.T) {
	b := NewEditBuffer([]byte("abc"))
	require.NoError(t, b.Replace(0, 3, "XYZ"))
	require.NoError(t, b.Insert(0, ">"))
	require.NoError(t, b.Insert(3, "<"))

	got, _ := b.Apply()
	assert.Equal(t, ">XYZ<", got)
}

func TestEditBuffer_InvalidRange(t *testing.T) {
	b := NewEditBuffer([]byte("short"))
	assert.Error(t, b.Replace(0, 100, "x"))
	assert.Error(t, b.Replace(3, 1, "x"))
	assert.Error(t, b.Replace(-1, 1, "x"))
	assert.Equal(t, 0, b.Len())
}

func TestEditBuffer_Overlap(t *testing.T) {
	b := NewEditBuffer([]byte("0123456789"))
	require.NoError(t, b.Replace(2, 6, "x"))

	err := b.Replace(5, 8, "y")
	var oe *OverlapError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, 2, oe.Existing.Start)
	assert.Equal(t, 6, oe.Existing.End)

	assert.Error(t, b.Insert(4, "z"), "insert inside a replacement")
	assert.NoError(t, b.Replace(6, 8, "adjacent"))
	assert.NoError(t, b.Insert(2, "edge"))

	require.NoError(t, b.Insert(9, "i"))
	assert.Error(t, b.Replace(8, 10, "w"), "replacement over an insertion")
}

func TestPositionMap_Original(t *testing.T) {
	// "hello world" -> "hello brave new world"
	b := NewEditBuffer([]byte("hello world"))
	require.NoError(t, b.Insert(6, "brave new "))
	got, pm := b.Apply()
	require.Equal(t, "hello brave new world", got)

	assert.Equal(t, 0, pm.Original(0))
	assert.Equal(t, 5, pm.Original(5))
	assert.Equal(t, 6, pm.Original(8), "generated text maps to its anchor")
	assert.Equal(t, 6, pm.Original(16), "'w' of world")
	assert.Equal(t, 10, pm.Original(20))
	assert.Equal(t, 11, pm.Original(21), "end of output")
}

func TestPositionMap_NoEdits(t *testing.T) {
	b := NewEditBuffer([]byte("abc"))
	got, pm := b.Apply()
	assert.Equal(t, "abc", got)
	assert.Equal(t, 2, pm.Original(2))
}

func TestSourceMap(t *testing.T) {
	src := []byte("a\n<x/>\nb\n")
	b := NewEditBuffer(src)
	require.NoError(t, b.Replace(2, 6, "<p>\n</p>"))
	out, pm := b.Apply()
	require.Equal(t, "a\n<p>\n</p>\nb\n", out)

	sm := pm.SourceMap("Page.svelte", src, []byte(out))
	assert.Equal(t, 3, sm.Version)
	assert.Equal(t, []string{"Page.svelte"}, sm.Sources)
	// "</p>" is generated from source 1:0; the "\n" after it is source 1:4.
	assert.Equal(t, "AAAA;AACA;AAAA,IAAI;AACJ;", sm.Mappings)

	raw, err := sm.JSON()
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.EqualValues(t, 3, decoded["version"])
}

func TestSourceMap_UTF16Columns(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"ab", "AAAA,EAAE"},
		// two bytes, one unit
		{"é", "AAAA,CAAC"},
		// four bytes, surrogate pair
		{"\U0001F600", "AAAA,EAAE"},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			src := []byte(tt.prefix + "<x/>")
			b := NewEditBuffer(src)
			require.NoError(t, b.Replace(len(tt.prefix), len(src), "<p/>"))
			out, pm := b.Apply()
			assert.Equal(t, tt.want, pm.SourceMap("a.svelte", src, []byte(out)).Mappings)
		})
	}
}

func TestWriteVLQ(t *testing.T) {
	tests := map[int]string{0: "A", 1: "C", -1: "D", 15: "e", 16: "gB", -16: "hB", 123: "2H"}
	for v, want := range tests {
		var b strings.Builder
		writeVLQ(&b, v)
		assert.Equal(t, want, b.String(), "vlq(%d)", v)
	}
}
