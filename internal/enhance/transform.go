// Package enhance rewrites <enhanced:img> elements into responsive markup.
//
// A Transformer walks one parsed document in order, resolves each literal
// source through a Host, and splices the generated <picture> (or <img>) over
// the element. Sources written as expressions get a runtime branch instead.
// Resolutions are cached per pass; nothing survives between Transform calls.
package enhance

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/agentic-research/enhimg/internal/markup"
	"github.com/agentic-research/enhimg/internal/writeback"
)

// DefaultTag is the element the transform rewrites.
const DefaultTag = "enhanced:img"

// Options tune a Transformer. Zero values select the defaults.
type Options struct {
	Tag               string
	PlaceholderPrefix string
	Extensions        []string
}

// Transformer rewrites documents. It holds no per-document state and may be
// reused; each Transform call gets its own cache.
type Transformer struct {
	host        Host
	tag         string
	prefix      string
	optimizable *regexp.Regexp
	logger      *slog.Logger
}

func NewTransformer(host Host, opts Options, logger *slog.Logger) *Transformer {
	if opts.Tag == "" {
		opts.Tag = DefaultTag
	}
	if opts.PlaceholderPrefix == "" {
		opts.PlaceholderPrefix = DefaultPlaceholderPrefix
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Transformer{
		host:        host,
		tag:         opts.Tag,
		prefix:      opts.PlaceholderPrefix,
		optimizable: optimizablePattern(opts.Extensions),
		logger:      logger,
	}
}

// Stats counts what one pass did.
type Stats struct {
	Rewritten   int // elements replaced or re-pointed
	Skipped     int // candidates left untouched
	Resolutions int // host lookups that produced a cache entry
}

// Output is the result of one pass.
type Output struct {
	Filename  string
	Code      string
	Changed   bool
	Positions *writeback.PositionMap
	Stats     Stats

	source []byte
}

// SourceMap renders a v3 source map from Code back to the input.
func (o *Output) SourceMap() *writeback.SourceMap {
	return o.Positions.SourceMap(o.Filename, o.source, []byte(o.Code))
}

// Transform rewrites every target element in source. Any fatal resolution
// error aborts the whole document; no partial output is returned.
func (t *Transformer) Transform(ctx context.Context, filename string, source []byte) (*Output, error) {
	doc, err := markup.Parse(ctx, filename, source)
	if err != nil {
		return nil, err
	}

	p := &pass{
		t:     t,
		doc:   doc,
		cache: NewCache(t.prefix),
		buf:   writeback.NewEditBuffer(source),
		log:   t.logger.With("file", filename),
	}
	if doc.HasErrors && p.log.Enabled(ctx, slog.LevelDebug) {
		for _, se := range doc.SyntaxErrors() {
			p.log.Debug("markup not understood", "at", se.Error())
		}
	}

	var walkErr error
	markup.Walk(doc.Root, func(n *markup.Node) bool {
		if walkErr != nil {
			return false
		}
		if n.Kind != markup.KindElement || n.Name != t.tag {
			return true
		}
		if err := ctx.Err(); err != nil {
			walkErr = err
			return false
		}
		descend, err := p.visit(ctx, n)
		if err != nil {
			walkErr = err
			return false
		}
		return descend
	})
	if walkErr != nil {
		return nil, fmt.Errorf("%s: %w", filename, walkErr)
	}

	if err := p.injectImports(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	code, positions := p.buf.Apply()
	p.stats.Resolutions = p.cache.Len()
	return &Output{
		Filename:  filename,
		Code:      code,
		Changed:   p.buf.Len() > 0,
		Positions: positions,
		Stats:     p.stats,
		source:    source,
	}, nil
}

// pass is the state of one Transform call.
type pass struct {
	t       *Transformer
	doc     *markup.Document
	cache   *Cache
	buf     *writeback.EditBuffer
	log     *slog.Logger
	stats   Stats
	imports []*Entry
}

// visit rewrites one target element and reports whether the walk should
// descend into it.
func (p *pass) visit(ctx context.Context, n *markup.Node) (bool, error) {
	src, ok := n.Attr("src")
	if !ok || src.Kind == markup.Bare {
		p.stats.Skipped++
		p.log.Debug("skip: no src", "offset", n.Start)
		return true, nil
	}

	// An element left open is replaced over its opening tag only; whatever
	// the grammar nested under it is still document content to visit.
	descend := n.ElementEnd() < n.End

	if src.Kind == markup.Expression {
		p.stats.Rewritten++
		return descend, p.buf.Replace(n.Start, n.ElementEnd(), dynamicPicture(p.doc.Source, n, src.Value))
	}

	k, _ := KeyAttrsOf(n)
	key := k.Key()
	entry, err := p.resolve(ctx, key, src.Value)
	if err != nil {
		return false, err
	}
	if entry == nil {
		p.stats.Skipped++
		p.log.Debug("skip: unresolved", "key", key)
		return true, nil
	}

	p.stats.Rewritten++
	if entry.Variant == nil {
		p.addImport(entry)
		return true, p.buf.Replace(src.Start, src.End, "src={"+entry.Placeholder+"}")
	}
	return descend, p.buf.Replace(n.Start, n.ElementEnd(), staticPicture(p.doc.Source, n, entry.Variant))
}

// resolve returns the cached entry for key, asking the host on a miss.
// A nil entry with a nil error means the host does not know the key.
func (p *pass) resolve(ctx context.Context, key, src string) (*Entry, error) {
	if e, ok := p.cache.Get(key); ok {
		p.log.Debug("cache hit", "key", key)
		return e, nil
	}

	id, ok, err := p.t.host.ResolveID(ctx, key, p.doc.Filename)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}

	e := &Entry{ID: id, Path: src}
	if p.t.optimizable.MatchString(stripQuery(src)) {
		v, err := load(ctx, p.t.host, id)
		if err != nil {
			return nil, err
		}
		e.Variant = v
	}
	p.cache.Put(key, e)
	p.log.Debug("resolved", "key", key, "id", id, "placeholder", e.Placeholder)
	return e, nil
}

func (p *pass) addImport(e *Entry) {
	for _, have := range p.imports {
		if have == e {
			return
		}
	}
	p.imports = append(p.imports, e)
}

// injectImports declares every placeholder used for a non-optimizable source
// at the top of the instance script, creating one if needed.
func (p *pass) injectImports() error {
	if len(p.imports) == 0 {
		return nil
	}
	var b strings.Builder
	for _, e := range p.imports {
		b.WriteString("import ")
		b.WriteString(e.Placeholder)
		b.WriteString(" from ")
		b.WriteString(strconv.Quote(e.Path))
		b.WriteString(";")
	}
	if s := p.doc.InstanceScript(); s != nil {
		return p.buf.Insert(s.ContentStart, b.String())
	}
	return p.buf.Insert(0, "<script>"+b.String()+"</script>")
}
