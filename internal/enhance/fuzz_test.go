package enhance

import (
	"context"
	"testing"
)

func FuzzTransform(f *testing.F) {
	f.Add(`<enhanced:img src="./a.png" alt="x" />`)
	f.Add(`<script>let p;</script><enhanced:img src={p} sizes="50vw" />`)
	f.Add(`<div><enhanced:img src="./logo.svg" width={w}></enhanced:img></div>`)
	f.Add(`<enhanced:img src="./a.png"`)

	f.Fuzz(func(t *testing.T, source string) {
		if len(source) > 4096 {
			return
		}
		tr := NewTransformer(newHost(), Options{}, nil)
		out, err := tr.Transform(context.Background(), "Fuzz.svelte", []byte(source))
		if err != nil {
			return
		}
		if !out.Changed && out.Code != source {
			t.Fatalf("unchanged pass altered the text: %q", out.Code)
		}
		for i := 0; i <= len(out.Code); i++ {
			if o := out.Positions.Original(i); o < 0 || o > len(source) {
				t.Fatalf("offset %d maps outside the input: %d", i, o)
			}
		}
	})
}
