// Package assets resolves image references in a document to module
// identifiers on a filesystem.
//
// A reference is resolved the way a bundler would: relative paths against
// the importing document's directory, root-relative paths against the
// filesystem root. Remote URLs and files that do not exist are not resolved,
// which the transform treats as "leave the element alone".
package assets

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	billy "github.com/go-git/go-billy/v5"

	"github.com/agentic-research/enhimg/internal/enhance"
)

// ModuleID normalizes key relative to importer. It returns the identifier
// (cleaned path plus the original query) and the bare path.
// Remote references report ok=false.
func ModuleID(key, importer string) (id, file string, ok bool) {
	ref, query, _ := strings.Cut(key, "?")
	if ref == "" || strings.Contains(ref, "://") || strings.HasPrefix(ref, "//") || strings.HasPrefix(ref, "data:") {
		return "", "", false
	}

	if strings.HasPrefix(ref, "/") {
		file = path.Clean(strings.TrimPrefix(ref, "/"))
	} else {
		file = path.Clean(path.Join(path.Dir(importer), ref))
	}
	if file == ".." || strings.HasPrefix(file, "../") {
		return "", "", false // escapes the root
	}

	id = file
	if query != "" {
		id += "?" + query
	}
	return id, file, true
}

// FSHost resolves references that exist on fs. It has no load capability of
// its own; see WithLoader.
type FSHost struct {
	fs billy.Filesystem
}

func NewFSHost(fs billy.Filesystem) *FSHost {
	return &FSHost{fs: fs}
}

// ResolveID implements enhance.Host.
func (h *FSHost) ResolveID(_ context.Context, key, importer string) (string, bool, error) {
	id, file, ok := ModuleID(key, importer)
	if !ok {
		return "", false, nil
	}
	info, err := h.fs.Stat(file)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("stat %s: %w", file, err)
	}
	if info.IsDir() {
		return "", false, nil
	}
	return id, true, nil
}

// LoadingHost pairs filesystem resolution with a loader for variant modules.
type LoadingHost struct {
	*FSHost
	loader enhance.Loader
}

// WithLoader returns a host that resolves on h's filesystem and loads through l.
func (h *FSHost) WithLoader(l enhance.Loader) *LoadingHost {
	return &LoadingHost{FSHost: h, loader: l}
}

// Load implements enhance.Loader.
func (h *LoadingHost) Load(ctx context.Context, id string) (string, error) {
	return h.loader.Load(ctx, id)
}

var (
	_ enhance.Host   = (*FSHost)(nil)
	_ enhance.Host   = (*LoadingHost)(nil)
	_ enhance.Loader = (*LoadingHost)(nil)
)
