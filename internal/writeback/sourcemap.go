package writeback

import (
	"encoding/json"
	"sort"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

type segment struct {
	outStart, outEnd int
	inStart, inEnd   int
	generated        bool
}

// PositionMap maps offsets in edited output back to the source.
type PositionMap struct {
	segments []segment
	outLen   int
}

// Original returns the source offset for output offset out. Offsets inside
// generated text map to the start of the range that text replaced.
func (m *PositionMap) Original(out int) int {
	if len(m.segments) == 0 {
		return out
	}
	i := sort.Search(len(m.segments), func(i int) bool {
		return m.segments[i].outEnd > out
	})
	if i == len(m.segments) {
		last := m.segments[len(m.segments)-1]
		return last.inEnd
	}
	s := m.segments[i]
	if s.generated {
		return s.inStart
	}
	return s.inStart + (out - s.outStart)
}

// SourceMap is a v3 source map.
type SourceMap struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// JSON renders the map.
func (s *SourceMap) JSON() ([]byte, error) {
	return json.Marshal(s)
}

// SourceMap renders a v3 map for output produced from source. Every output
// line start and every segment boundary gets a mapping.
func (m *PositionMap) SourceMap(file string, source, output []byte) *SourceMap {
	srcLines := lineStarts(source)
	starts := make(map[int]bool, len(m.segments))
	for _, s := range m.segments {
		starts[s.outStart] = true
	}

	var (
		b                       strings.Builder
		col, prevCol            int
		prevSrcLine, prevSrcCol int
		lineHasSegment          bool
	)
	for off := 0; off < len(output); off++ {
		if !utf8.RuneStart(output[off]) {
			continue
		}
		if col == 0 || starts[off] {
			sl, sc := position(srcLines, source, m.Original(off))
			if lineHasSegment {
				b.WriteByte(',')
			}
			writeVLQ(&b, col-prevCol)
			writeVLQ(&b, 0)
			writeVLQ(&b, sl-prevSrcLine)
			writeVLQ(&b, sc-prevSrcCol)
			prevCol, prevSrcLine, prevSrcCol = col, sl, sc
			lineHasSegment = true
		}
		if output[off] == '\n' {
			b.WriteByte(';')
			col, prevCol = 0, 0
			lineHasSegment = false
			continue
		}
		r, _ := utf8.DecodeRune(output[off:])
		col += utf16Units(r)
	}

	return &SourceMap{
		Version:        3,
		File:           file,
		Sources:        []string{file},
		SourcesContent: []string{string(source)},
		Names:          []string{},
		Mappings:       b.String(),
	}
}

func lineStarts(src []byte) []int {
	starts := []int{0}
	for i, c := range src {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// position returns the line and UTF-16 column of byte offset off in src.
func position(starts []int, src []byte, off int) (line, col int) {
	line = sort.Search(len(starts), func(i int) bool { return starts[i] > off }) - 1
	if line < 0 {
		line = 0
	}
	if off > len(src) {
		off = len(src)
	}
	for _, r := range string(src[starts[line]:off]) {
		col += utf16Units(r)
	}
	return line, col
}

// utf16Units is the width of r in the UTF-16 code units source map columns
// count in.
func utf16Units(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}

const base64Digits = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

func writeVLQ(b *strings.Builder, v int) {
	u := v << 1
	if v < 0 {
		u = (-v << 1) | 1
	}
	for {
		digit := u & 31
		u >>= 5
		if u > 0 {
			digit |= 32
		}
		b.WriteByte(base64Digits[digit])
		if u == 0 {
			return
		}
	}
}
