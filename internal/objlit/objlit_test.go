package objlit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_LooseLiteral(t *testing.T) {
	in := "{src:'/a.png',\n width:10, height:20, sources:{avif:'/a.avif 1w'}}"
	res, err := Parse(in)
	require.NoError(t, err)

	obj, ok := res.Data.(map[string]any)
	require.True(t, ok, "expected object, got %T", res.Data)
	assert.Equal(t, "/a.png", obj["src"])
	assert.EqualValues(t, 10, obj["width"])
	assert.EqualValues(t, 20, obj["height"])

	sources, ok := obj["sources"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/a.avif 1w", sources["avif"])
}

func TestParse_KeyOrder(t *testing.T) {
	in := `{sources:{avif:"/a.avif 100w",webp:"/a.webp 100w",jpeg:"/a.jpg 100w"},img:{src:"/a.jpg",w:100,h:50}}`
	res, err := Parse(in)
	require.NoError(t, err)

	assert.Equal(t, []string{"sources", "img"}, res.Keys())
	assert.Equal(t, []string{"avif", "webp", "jpeg"}, res.Keys("sources"))
	assert.Equal(t, []string{"src", "w", "h"}, res.Keys("img"))
	assert.Nil(t, res.Keys("missing"))
}

func TestParse_Formatting(t *testing.T) {
	tests := []struct {
		name string
		in   string
		key  string
		want any
	}{
		{"newline after brace", "{\n\tsrc: \"/x.png\"\n}", "src", "/x.png"},
		{"trailing comma", "{src:'/x.png',}", "src", "/x.png"},
		{"double quoted key", `{"src":"/x.png"}`, "src", "/x.png"},
		{"bareword value", "{format: webp}", "format", "webp"},
		{"escaped quote", `{alt:'it\'s'}`, "alt", "it's"},
		{"embedded double quote", `{alt:'say "hi"'}`, "alt", `say "hi"`},
		{"boolean", "{ok:true}", "ok", true},
		{"null", "{v:null}", "v", nil},
		{"float", "{r:1.5}", "r", 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Parse(tt.in)
			require.NoError(t, err)
			obj := res.Data.(map[string]any)
			assert.Equal(t, tt.want, obj[tt.key])
		})
	}
}

func TestParse_Array(t *testing.T) {
	res, err := Parse("{list:[1, 2, 'three',]}")
	require.NoError(t, err)
	obj := res.Data.(map[string]any)
	list, ok := obj["list"].([]any)
	require.True(t, ok)
	require.Len(t, list, 3)
	assert.EqualValues(t, 1, list[0])
	assert.Equal(t, "three", list[2])
}

func TestParse_Malformed(t *testing.T) {
	for _, in := range []string{
		"{src:'/a.png'",
		"{src:'/a.png'}}",
		"{src:'/a.png]",
		"{src:'/a.png}",
		"{src}",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, in, pe.Text)
			assert.Contains(t, err.Error(), in)
		})
	}
}

func TestStripModule(t *testing.T) {
	assert.Equal(t, "{a:1}", StripModule("export default {a:1};"))
	assert.Equal(t, "{a:1}", StripModule("  export default {a:1}\n"))
	assert.Equal(t, "{a:1}", StripModule("{a:1}"))
}
