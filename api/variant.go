package api

// Variant is the resolved description of one image: its intrinsic rendition
// plus alternate-format source sets. It is immutable once produced by a
// resolver.
type Variant struct {
	// Img is the fallback rendition used by the final <img>.
	Img Image `json:"img"`
	// Sources lists alternate formats in generation order.
	Sources []Source `json:"sources,omitempty"`
}

// Image is the intrinsic rendition.
type Image struct {
	Src string `json:"src"`
	W   int    `json:"w"`
	H   int    `json:"h"`
}

// Source is one alternate format, e.g. {avif, "/a.avif 640w, /b.avif 1280w"}.
type Source struct {
	Format string `json:"format"`
	Srcset string `json:"srcset"`
}
