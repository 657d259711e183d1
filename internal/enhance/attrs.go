package enhance

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/agentic-research/enhimg/internal/markup"
)

// imgDetails are the computed pieces of the final <img>. Values are already
// in attribute-value form: `"..."` for literals, `{...}` for expressions.
type imgDetails struct {
	src    string
	width  string
	height string
	// scaleWidth/scaleHeight derive one dimension from the user's other one.
	scaleWidth  func(userHeight markup.Attribute) (string, bool)
	scaleHeight func(userWidth markup.Attribute) (string, bool)
}

// splitSizes removes the sizes attribute from attrs and returns its raw text
// with a leading space, ready to be copied onto <source> elements.
func splitSizes(source []byte, attrs []markup.Attribute) ([]markup.Attribute, string) {
	rest := make([]markup.Attribute, 0, len(attrs))
	var sizes string
	for _, a := range attrs {
		if a.Name == "sizes" {
			sizes = " " + a.Raw(source)
			continue
		}
		rest = append(rest, a)
	}
	return rest, sizes
}

// serializeImgAttributes writes the user's attributes verbatim, swapping src
// for the computed one in place, then appends whichever of width/height the
// user did not fix.
func serializeImgAttributes(source []byte, attrs []markup.Attribute, d imgDetails) string {
	parts := make([]string, 0, len(attrs)+2)
	var width, height *markup.Attribute
	for i, a := range attrs {
		switch a.Name {
		case "src":
			parts = append(parts, "src="+d.src)
			continue
		case "width":
			width = &attrs[i]
		case "height":
			height = &attrs[i]
		}
		parts = append(parts, a.Raw(source))
	}

	switch {
	case width == nil && height == nil:
		parts = append(parts, "width="+d.width, "height="+d.height)
	case width == nil:
		if v, ok := d.scaleWidth(*height); ok {
			parts = append(parts, "width="+v)
		}
	case height == nil:
		if v, ok := d.scaleHeight(*width); ok {
			parts = append(parts, "height="+v)
		}
	}
	return strings.Join(parts, " ")
}

// staticDetails computes literal values from known intrinsic dimensions.
func staticDetails(src string, w, h int) imgDetails {
	return imgDetails{
		src:    quote(src),
		width:  quote(strconv.Itoa(w)),
		height: quote(strconv.Itoa(h)),
		scaleWidth: func(user markup.Attribute) (string, bool) {
			return scaleStatic(w, h, user)
		},
		scaleHeight: func(user markup.Attribute) (string, bool) {
			return scaleStatic(h, w, user)
		},
	}
}

// dynamicDetails computes expressions over a value only known at runtime.
func dynamicDetails(ref string) imgDetails {
	w, h := ref+".img.w", ref+".img.h"
	return imgDetails{
		src:    "{" + ref + ".img.src}",
		width:  "{" + w + "}",
		height: "{" + h + "}",
		scaleWidth: func(user markup.Attribute) (string, bool) {
			return scaleDynamic(w, h, user)
		},
		scaleHeight: func(user markup.Attribute) (string, bool) {
			return scaleDynamic(h, w, user)
		},
	}
}

// scaleStatic returns round(num * user / den).
func scaleStatic(num, den int, user markup.Attribute) (string, bool) {
	if den == 0 {
		return "", false
	}
	switch user.Kind {
	case markup.Literal:
		f, ok := number(user.Value)
		if !ok {
			return "", false
		}
		return quote(strconv.Itoa(roundHalfUp(float64(num) * f / float64(den)))), true
	case markup.Expression:
		return fmt.Sprintf("{Math.round(%d * (%s) / %d)}", num, user.Value, den), true
	default:
		return "", false
	}
}

func scaleDynamic(num, den string, user markup.Attribute) (string, bool) {
	switch user.Kind {
	case markup.Literal:
		f, ok := number(user.Value)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("{Math.round(%s * %s / %s)}", num, strconv.FormatFloat(f, 'f', -1, 64), den), true
	case markup.Expression:
		return fmt.Sprintf("{Math.round(%s * (%s) / %s)}", num, user.Value, den), true
	default:
		return "", false
	}
}

func number(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// roundHalfUp matches Math.round: halves go towards +Inf.
func roundHalfUp(f float64) int {
	return int(math.Floor(f + 0.5))
}

func quote(v string) string {
	return `"` + html.EscapeString(v) + `"`
}
