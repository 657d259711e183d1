package enhance

import (
	"regexp"
	"strings"

	"github.com/agentic-research/enhimg/api"
	"github.com/agentic-research/enhimg/internal/markup"
)

// DefaultExtensions are the raster formats the variant pipeline transforms.
var DefaultExtensions = []string{"avif", "gif", "heif", "jpeg", "jpg", "png", "tiff", "webp"}

// optimizablePattern matches a path ending in one of exts, query excluded.
func optimizablePattern(exts []string) *regexp.Regexp {
	quoted := make([]string, len(exts))
	for i, e := range exts {
		quoted[i] = regexp.QuoteMeta(strings.TrimPrefix(e, "."))
	}
	return regexp.MustCompile(`(?i)\.(` + strings.Join(quoted, "|") + `)$`)
}

func stripQuery(p string) string {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		return p[:i]
	}
	return p
}

// staticPicture renders a <picture> for a literal source with known variants.
func staticPicture(source []byte, n *markup.Node, v *api.Variant) string {
	attrs, sizes := splitSizes(source, n.Attrs)

	var b strings.Builder
	b.WriteString("<picture>")
	for _, s := range v.Sources {
		b.WriteString("<source srcset=")
		b.WriteString(quote(s.Srcset))
		b.WriteString(sizes)
		b.WriteString(` type="image/`)
		b.WriteString(s.Format)
		b.WriteString(`" />`)
	}
	b.WriteString("<img ")
	b.WriteString(serializeImgAttributes(source, attrs, staticDetails(v.Img.Src, v.Img.W, v.Img.H)))
	b.WriteString(" /></picture>")
	return b.String()
}

var simpleRef = regexp.MustCompile(`^[\p{L}_$][\p{L}\p{N}_$]*(\.[\p{L}_$][\p{L}\p{N}_$]*)*$`)

// dynamicPicture renders a runtime branch for src={expr}: a plain <img> when
// the value is a string, a <picture> over its sources otherwise.
func dynamicPicture(source []byte, n *markup.Node, expr string) string {
	ref := expr
	if !simpleRef.MatchString(ref) {
		ref = "(" + ref + ")"
	}
	attrs, sizes := splitSizes(source, n.Attrs)
	img := "<img " + serializeImgAttributes(source, attrs, dynamicDetails(ref)) + " />"

	var b strings.Builder
	b.WriteString("{#if typeof " + ref + " === 'string'}\n")
	b.WriteString("\t" + img + "\n")
	b.WriteString("{:else}\n")
	b.WriteString("\t<picture>\n")
	b.WriteString("\t\t{#each Object.entries(" + ref + ".sources) as [format, srcset]}\n")
	b.WriteString("\t\t\t<source {srcset}" + sizes + " type={'image/' + format} />\n")
	b.WriteString("\t\t{/each}\n")
	b.WriteString("\t\t" + img + "\n")
	b.WriteString("\t</picture>\n")
	b.WriteString("{/if}")
	return b.String()
}
