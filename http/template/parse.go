package template

import (
	"fmt"
	html "html/template"
	"io/fs"
	"path"
	"sync"
)

// Parser is the interface for parsing HTML templates with the functions provided.
type Parser interface {
	AddFn(name string, fn any)
	Parse(fps ...string) (*html.Template, error)
}

// Parse implements Parser with a focus on utilizing embedded HTML templates through fs.FS.
type Parse struct {
	fs  fs.FS
	fns html.FuncMap
	mu  sync.RWMutex
}

var _ Parser = new(Parse)

// NewParser constructs a *Parse searching dirs, in order, for templates.
func NewParser(dirs []fs.FS, opts ...ParserOptFn) *Parse {
	p := &Parse{fns: make(html.FuncMap), fs: newMergeFS(dirs...)}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// AddFn adds the named function to the functions available to templates.
// A function under the same name is overwritten.
func (p *Parse) AddFn(name string, fn any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.fns[name] = fn
}

// Parse parses files found in the *Parse.fs with those functions provided previously.
// The first file names the returned template.
func (p *Parse) Parse(fps ...string) (*html.Template, error) {
	files := make([]string, 0, len(fps))
	for _, fp := range fps {
		if fp != "" {
			files = append(files, fp)
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w", ErrNoFiles)
	}

	p.mu.RLock()
	fns := make(html.FuncMap, len(p.fns))
	for k, v := range p.fns {
		fns[k] = v
	}
	p.mu.RUnlock()

	return html.New(path.Base(files[0])).Funcs(fns).ParseFS(p.fs, files...)
}
