package enhance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/enhimg/internal/markup"
	"github.com/agentic-research/enhimg/internal/objlit"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		k    KeyAttrs
		want string
	}{
		{"src only", KeyAttrs{Src: "./a.png"}, "./a.png?enhanced"},
		{"existing query", KeyAttrs{Src: "./a.png?w=400"}, "./a.png?w=400&enhanced"},
		{"sizes", KeyAttrs{Src: "./a.png", Sizes: "100vw", HasSizes: true}, "./a.png?imgSizes=100vw&enhanced"},
		{"width", KeyAttrs{Src: "./a.png", Width: "300", HasWidth: true}, "./a.png?imgWidth=300&enhanced"},
		{
			"sizes before width",
			KeyAttrs{Src: "./a.png", Sizes: "(max-width: 600px) 480px, 800px", HasSizes: true, Width: "800", HasWidth: true},
			"./a.png?imgSizes=(max-width%3A%20600px)%20480px%2C%20800px&imgWidth=800&enhanced",
		},
		{"empty sizes", KeyAttrs{Src: "./a.png", HasSizes: true}, "./a.png?imgSizes=&enhanced"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.k.Key())
		})
	}
}

func TestKeyAttrsOf(t *testing.T) {
	doc, err := markup.Parse(context.Background(), "a.svelte",
		[]byte(`<enhanced:img width="300" src="./a.png" sizes={s} /><enhanced:img src={p} />`))
	require.NoError(t, err)

	var nodes []*markup.Node
	markup.Walk(doc.Root, func(n *markup.Node) bool {
		if n.Name == DefaultTag {
			nodes = append(nodes, n)
		}
		return true
	})
	require.Len(t, nodes, 2)

	k, ok := KeyAttrsOf(nodes[0])
	require.True(t, ok)
	assert.Equal(t, "./a.png?imgWidth=300&enhanced", k.Key(), "expression sizes stay out of the key")

	_, ok = KeyAttrsOf(nodes[1])
	assert.False(t, ok)
}

func TestEncodeURIComponent(t *testing.T) {
	assert.Equal(t, "abcXYZ019-_.!~*'()", encodeURIComponent("abcXYZ019-_.!~*'()"))
	assert.Equal(t, "%20%2F%3F%26%3D%2C%23%25", encodeURIComponent(" /?&=,#%"))
	assert.Equal(t, "%C3%A9", encodeURIComponent("é"))
}

func TestOptimizable(t *testing.T) {
	re := optimizablePattern(DefaultExtensions)
	for _, p := range []string{"a.png", "a.JPG", "dir/a.jpeg", "a.webp", "a.avif", "a.tiff", "a.gif", "a.heif"} {
		assert.True(t, re.MatchString(stripQuery(p)), p)
	}
	for _, p := range []string{"a.svg", "a.png.svg", "a", "png"} {
		assert.False(t, re.MatchString(stripQuery(p)), p)
	}
	assert.True(t, re.MatchString(stripQuery("a.png?w=100")))
	assert.False(t, re.MatchString(stripQuery("a.svg?x=.png")))

	custom := optimizablePattern([]string{".png"})
	assert.False(t, custom.MatchString("a.jpg"))
	assert.True(t, custom.MatchString("a.png"))
}

func TestDecodeVariant_Order(t *testing.T) {
	res, err := objlit.Parse(`{sources:{webp:'/a.webp 1w',avif:'/a.avif 1w'},img:{src:'/a.png',w:1.5,h:2}}`)
	require.NoError(t, err)
	v, err := decodeVariant(res)
	require.NoError(t, err)

	require.Len(t, v.Sources, 2)
	assert.Equal(t, "webp", v.Sources[0].Format)
	assert.Equal(t, "avif", v.Sources[1].Format)
	assert.Equal(t, 2, v.Img.W, "fractional dimensions round half up")
	assert.Equal(t, 2, v.Img.H)
}

func TestDecodeVariant_Errors(t *testing.T) {
	for _, in := range []string{
		`{img:{w:1,h:1}}`,
		`{img:{src:'/a.png',w:'wide',h:1}}`,
		`{img:{src:'/a.png',w:1,h:1},sources:'avif'}`,
		`{img:{src:'/a.png',w:1,h:1},sources:{avif:1}}`,
	} {
		res, err := objlit.Parse(in)
		require.NoError(t, err, in)
		_, err = decodeVariant(res)
		assert.Error(t, err, in)
	}
}
