package preview

import (
	"sync"
	"time"
)

// Deferred renders off the caller's path. Each Schedule bumps a generation
// counter; a render whose generation has been superseded by the time it
// finishes is discarded, so commit only ever sees the latest input.
type Deferred struct {
	renderer *Renderer
	delay    time.Duration
	commit   func(Result)

	mu        sync.Mutex
	template  *Template
	gen       uint64
	committed uint64
	latest    Result
	timer     *time.Timer
	closed    bool
}

// NewDeferred returns a debounced renderer for tpl. commit runs on a timer
// goroutine with the newest result.
func NewDeferred(r *Renderer, tpl *Template, delay time.Duration, commit func(Result)) *Deferred {
	if r == nil {
		r = NewRenderer()
	}
	if delay < 0 {
		delay = 0
	}
	return &Deferred{renderer: r, template: tpl, delay: delay, commit: commit}
}

// SetTemplate swaps the template and invalidates pending renders.
func (d *Deferred) SetTemplate(tpl *Template) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.template = tpl
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
	}
}

// Schedule queues a render of in and returns its generation.
func (d *Deferred) Schedule(in Input) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return d.gen
	}
	d.gen++
	gen := d.gen
	tpl := d.template
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.run(gen, tpl, in) })
	return gen
}

func (d *Deferred) run(gen uint64, tpl *Template, in Input) {
	if !d.current(gen) {
		return
	}
	result := d.renderer.Render(tpl, in)

	d.mu.Lock()
	if gen != d.gen || d.closed {
		d.mu.Unlock()
		return
	}
	d.latest = result
	d.committed = gen
	commit := d.commit
	d.mu.Unlock()

	if commit != nil {
		commit(result)
	}
}

func (d *Deferred) current(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return gen == d.gen && !d.closed
}

// Latest returns the last committed result and its generation.
func (d *Deferred) Latest() (Result, uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.latest, d.committed
}

// Close stops pending work. Later Schedule calls are ignored.
func (d *Deferred) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
