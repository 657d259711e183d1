// Package writeback applies byte-range edits to an immutable source buffer and
// persists the result.
//
// Edits are collected as (start, end, replacement) triples, checked for
// overlap as they arrive, and applied in one pass. The pass also yields a
// PositionMap from output offsets back to source offsets, from which a v3
// source map can be rendered.
package writeback

import (
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring"
)

// Edit replaces source[Start:End] with Text. Start == End is an insertion.
type Edit struct {
	Start int
	End   int
	Text  string
}

// OverlapError reports an edit that intersects one already recorded.
type OverlapError struct {
	Edit     Edit
	Existing Edit
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("edit [%d:%d] overlaps edit [%d:%d]",
		e.Edit.Start, e.Edit.End, e.Existing.Start, e.Existing.End)
}

// EditBuffer accumulates edits over a source buffer.
type EditBuffer struct {
	source  []byte
	edits   []Edit
	covered *roaring.Bitmap // bytes already claimed by replacements
}

func NewEditBuffer(source []byte) *EditBuffer {
	return &EditBuffer{
		source:  source,
		covered: roaring.New(),
	}
}

// Replace records a replacement of source[start:end].
func (b *EditBuffer) Replace(start, end int, text string) error {
	if start < 0 || end > len(b.source) || start > end {
		return fmt.Errorf("invalid byte range [%d:%d] for source of length %d", start, end, len(b.source))
	}
	e := Edit{Start: start, End: end, Text: text}

	if start == end {
		// An insertion may touch a replacement's edges but not its interior.
		for _, ex := range b.edits {
			if ex.Start < start && start < ex.End {
				return &OverlapError{Edit: e, Existing: ex}
			}
		}
	} else {
		span := roaring.New()
		span.AddRange(uint64(start), uint64(end))
		if b.covered.Intersects(span) {
			return &OverlapError{Edit: e, Existing: b.conflicting(start, end)}
		}
		for _, ex := range b.edits {
			if ex.Start == ex.End && start < ex.Start && ex.Start < end {
				return &OverlapError{Edit: e, Existing: ex}
			}
		}
		b.covered.Or(span)
	}

	b.edits = append(b.edits, e)
	return nil
}

// Insert records text to be inserted at pos.
func (b *EditBuffer) Insert(pos int, text string) error {
	return b.Replace(pos, pos, text)
}

// Len reports how many edits have been recorded.
func (b *EditBuffer) Len() int { return len(b.edits) }

func (b *EditBuffer) conflicting(start, end int) Edit {
	for _, ex := range b.edits {
		if ex.Start < end && start < ex.End {
			return ex
		}
	}
	return Edit{}
}

// Apply produces the edited text and a map from output offsets to source
// offsets. The buffer is not consumed; Apply may be called again after more
// edits.
func (b *EditBuffer) Apply() (string, *PositionMap) {
	edits := make([]Edit, len(b.edits))
	copy(edits, b.edits)
	// Insertions at a position go before a replacement starting there;
	// otherwise keep recording order.
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].Start != edits[j].Start {
			return edits[i].Start < edits[j].Start
		}
		return edits[i].Start == edits[i].End && edits[j].Start != edits[j].End
	})

	out := make([]byte, 0, len(b.source))
	pm := &PositionMap{}
	cursor := 0
	emit := func(text []byte, inStart, inEnd int, generated bool) {
		if len(text) == 0 {
			return
		}
		pm.segments = append(pm.segments, segment{
			outStart:  len(out),
			outEnd:    len(out) + len(text),
			inStart:   inStart,
			inEnd:     inEnd,
			generated: generated,
		})
		out = append(out, text...)
	}

	for _, e := range edits {
		emit(b.source[cursor:e.Start], cursor, e.Start, false)
		emit([]byte(e.Text), e.Start, e.End, true)
		cursor = e.End
	}
	emit(b.source[cursor:], cursor, len(b.source), false)

	pm.outLen = len(out)
	return string(out), pm
}
