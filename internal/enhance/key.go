package enhance

import (
	"strings"

	"github.com/agentic-research/enhimg/internal/markup"
)

// KeyAttrs are the attribute values that identify one resolution.
type KeyAttrs struct {
	Src      string
	Sizes    string
	Width    string
	HasSizes bool
	HasWidth bool
}

// KeyAttrsOf reads the literal src, sizes and width of n. It reports false
// when src is missing or not a literal. Non-literal sizes/width are left out
// of the key.
func KeyAttrsOf(n *markup.Node) (KeyAttrs, bool) {
	src, ok := n.LiteralAttr("src")
	if !ok {
		return KeyAttrs{}, false
	}
	k := KeyAttrs{Src: src}
	k.Sizes, k.HasSizes = n.LiteralAttr("sizes")
	k.Width, k.HasWidth = n.LiteralAttr("width")
	return k, true
}

// Key builds the resolution key: src, then imgSizes, then imgWidth, then the
// bare "enhanced" marker.
//
//	./a.png?imgSizes=100vw&imgWidth=300&enhanced
func (k KeyAttrs) Key() string {
	var b strings.Builder
	b.WriteString(k.Src)
	if strings.Contains(k.Src, "?") {
		b.WriteByte('&')
	} else {
		b.WriteByte('?')
	}
	if k.HasSizes {
		b.WriteString("imgSizes=")
		b.WriteString(encodeURIComponent(k.Sizes))
		b.WriteByte('&')
	}
	if k.HasWidth {
		b.WriteString("imgWidth=")
		b.WriteString(encodeURIComponent(k.Width))
		b.WriteByte('&')
	}
	b.WriteString("enhanced")
	return b.String()
}

const upperHex = "0123456789ABCDEF"

// encodeURIComponent escapes everything except A-Z a-z 0-9 - _ . ! ~ * ' ( ),
// which is the set image pipelines expect when they decode the query.
func encodeURIComponent(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&15])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
