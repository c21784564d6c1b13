package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

const (
	// maxIdle bounds the idle renderers kept per option set. The chat screen
	// re-renders every visible reply on each stream update, usually at one width.
	maxIdle = 4
	// maxOptionSets bounds the option sets remembered. Each terminal resize
	// brings a new width; the least recently used set is dropped.
	maxOptionSets = 8
)

// renderers keeps idle glamour renderers per option set. A TermRenderer
// holds a buffer and must not render for two goroutines at once, so callers
// check one out and hand it back when done.
type renderers struct {
	mu    sync.Mutex
	idle  map[Options]chan *glamour.TermRenderer
	order []Options // least recently used first
}

var shared = newRenderers()

func newRenderers() *renderers {
	return &renderers{idle: make(map[Options]chan *glamour.TermRenderer)}
}

func (r *renderers) slot(opts Options) chan *glamour.TermRenderer {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.idle[opts]
	if ok {
		r.touch(opts)
		return ch
	}

	if len(r.order) >= maxOptionSets {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.idle, oldest)
	}
	ch = make(chan *glamour.TermRenderer, maxIdle)
	r.idle[opts] = ch
	r.order = append(r.order, opts)
	return ch
}

// touch moves opts to the most recently used end. Callers hold mu.
func (r *renderers) touch(opts Options) {
	for i, o := range r.order {
		if o == opts {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.order = append(r.order, opts)
}

func (r *renderers) checkout(opts Options) (*glamour.TermRenderer, error) {
	select {
	case tr := <-r.slot(opts):
		return tr, nil
	default:
		return newTermRenderer(opts)
	}
}

// checkin returns tr for reuse, dropping it when enough are idle
func (r *renderers) checkin(opts Options, tr *glamour.TermRenderer) {
	select {
	case r.slot(opts) <- tr:
	default:
	}
}

func (r *renderers) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.idle)
}

func newTermRenderer(opts Options) (*glamour.TermRenderer, error) {
	if opts.Width <= 0 {
		opts.Width = DefaultOptions().Width
	}

	settings := []glamour.TermRendererOption{
		glamour.WithStylePath(glamourStyle(opts.Style)),
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
		glamour.WithInlineTableLinks(opts.InlineTableLinks),
	}
	if opts.EnableEmoji {
		settings = append(settings, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		settings = append(settings, glamour.WithPreservedNewLines())
	}
	return glamour.NewTermRenderer(settings...)
}
