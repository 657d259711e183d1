package enhance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"

	"github.com/agentic-research/enhimg/api"
	"github.com/agentic-research/enhimg/internal/objlit"
)

// Host is the external resolver boundary. ResolveID maps a resolution key to a
// module identifier relative to the importing document; ok is false when the
// key names nothing the host handles.
type Host interface {
	ResolveID(ctx context.Context, key, importer string) (id string, ok bool, err error)
}

// Loader is the optional load capability of a Host. It returns the module
// text for an identifier produced by ResolveID.
type Loader interface {
	Load(ctx context.Context, id string) (string, error)
}

// ErrNoLoader means the host resolved an image but cannot load it. The
// integration is broken, not the input.
var ErrNoLoader = errors.New("host resolved an image but has no load capability; configure a variant manifest")

// LoadError reports a module that loaded to nothing.
type LoadError struct {
	ID string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("could not load %s: empty module", e.ID)
}

// PayloadError reports module text that parsed but does not describe a
// variant.
type PayloadError struct {
	ID   string
	Text string
	Err  error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("invalid variant payload for %s: %v: %s", e.ID, e.Err, e.Text)
}

func (e *PayloadError) Unwrap() error { return e.Err }

// load fetches and decodes the variant module behind id.
func load(ctx context.Context, host Host, id string) (*api.Variant, error) {
	loader, ok := host.(Loader)
	if !ok {
		return nil, ErrNoLoader
	}
	code, err := loader.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	if strings.TrimSpace(code) == "" {
		return nil, &LoadError{ID: id}
	}

	body := objlit.StripModule(code)
	res, err := objlit.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", id, err)
	}
	v, err := decodeVariant(res)
	if err != nil {
		return nil, &PayloadError{ID: id, Text: body, Err: err}
	}
	return v, nil
}

var (
	pathImgSrc  = jp.MustParseString("$.img.src")
	pathImgW    = jp.MustParseString("$.img.w")
	pathImgH    = jp.MustParseString("$.img.h")
	pathSources = jp.MustParseString("$.sources")
)

func decodeVariant(res *objlit.Result) (*api.Variant, error) {
	src, ok := pathImgSrc.First(res.Data).(string)
	if !ok {
		return nil, errors.New("img.src is not a string")
	}
	w, err := dimension(pathImgW.First(res.Data))
	if err != nil {
		return nil, fmt.Errorf("img.w: %w", err)
	}
	h, err := dimension(pathImgH.First(res.Data))
	if err != nil {
		return nil, fmt.Errorf("img.h: %w", err)
	}
	v := &api.Variant{Img: api.Image{Src: src, W: w, H: h}}

	raw := pathSources.First(res.Data)
	if raw == nil {
		return v, nil
	}
	sources, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("sources is %T, not an object", raw)
	}
	for _, format := range res.Keys("sources") {
		srcset, ok := sources[format].(string)
		if !ok {
			return nil, fmt.Errorf("sources.%s is not a string", format)
		}
		v.Sources = append(v.Sources, api.Source{Format: format, Srcset: srcset})
	}
	return v, nil
}

func dimension(v any) (int, error) {
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case int:
		return n, nil
	case float64:
		return roundHalfUp(n), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}
