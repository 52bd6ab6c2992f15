package profiler

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/luthersystems/corelisp/lisp"
	"github.com/sasha-s/go-deadlock"
)

// errWriter wraps an io.Writer and captures the first write error,
// short-circuiting subsequent writes after a failure.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) print(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprint(ew.w, s)
}

// entrypoint is the pseudo function every thread's outermost calls are
// attributed to.
const entrypoint = "ENTRYPOINT"

// A profiler implementation that builds Callgrind files.  Functions are
// grouped into files by namespace.  The resulting files can be opened in
// KCacheGrind or QCacheGrind.
type callgrindProfiler struct {
	profiler
	mu         deadlock.Mutex
	writer     io.Writer
	writeErr   error
	startTime  time.Time
	refs       map[string]int
	refCounter int
	root       *callRef
	callRefs   map[uint]*callRef
}

var _ lisp.Profiler = &callgrindProfiler{}

// Returns a new Callgrind processor
func NewCallgrindProfiler(runtime *lisp.Runtime, opts ...Option) *callgrindProfiler {
	p := new(callgrindProfiler)
	p.runtime = runtime
	runtime.Profiler = p

	p.applyConfigs(opts...)
	return p
}

// Represents something that got called
type callRef struct {
	start       time.Time
	prev        *callRef
	name        string
	file        string
	children    []*callRef
	duration    time.Duration
	startMemory uint64
	endMemory   uint64
}

func (p *callgrindProfiler) Enable() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writer == nil {
		return errors.New("no output set in profiler")
	}
	w := &errWriter{w: p.writer}
	w.printf("version: 1\ncreator: corelisp %s (Go %s)\n", lisp.Version, runtime.Version())
	w.printf("cmd: Call\npart: 1\npositions: line\n\n")
	w.printf("events: Time_(ns) Memory_(bytes)\n\n")
	if w.err != nil {
		return w.err
	}
	p.callRefs = make(map[uint]*callRef)
	p.startTime = time.Now()
	p.refs = make(map[string]int)
	p.refCounter = 0
	p.root = newCallRef(entrypoint, "-", nil)
	return p.profiler.Enable()
}

// SetFile directs output to a newly created file.
func (p *callgrindProfiler) SetFile(filename string) error {
	pointer, err := os.Create(filename) //#nosec G304
	if err != nil {
		return err
	}
	if err := p.SetWriter(pointer); err != nil {
		pointer.Close()
		return err
	}
	return nil
}

// SetWriter directs output to w.  If w is an io.Closer it is closed by
// Complete.
func (p *callgrindProfiler) SetWriter(w io.Writer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.IsEnabled() {
		return errors.New("profiler already enabled")
	}
	p.writer = w
	return nil
}

func (p *callgrindProfiler) Complete() error {
	if err := p.profiler.Complete(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.root == nil {
		return errors.New("profiler was not enabled")
	}
	if p.writeErr != nil {
		return p.writeErr
	}
	// Generate entrypoint
	ref := p.root
	ref.duration = time.Since(ref.start)
	w := &errWriter{w: p.writer}
	w.printf("fl=%s\n", p.getRef(ref.file))
	w.printf("fn=%s\n", p.getRef(ref.name))
	w.printf("%d %d %d\n", 0, ref.duration, 0)
	// Output the things we called
	p.writeCalls(w, ref, 0)
	w.print("\n")
	duration := time.Since(p.startTime)
	ms := &runtime.MemStats{}
	runtime.ReadMemStats(ms)
	w.printf("summary %d %d\n\n", duration.Nanoseconds(), ms.TotalAlloc)
	if w.err != nil {
		return w.err
	}
	if c, ok := p.writer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (p *callgrindProfiler) getRef(name string) string {
	if ref, ok := p.refs[name]; ok {
		return fmt.Sprintf("(%d)", ref)
	}
	p.refCounter++
	p.refs[name] = p.refCounter
	return fmt.Sprintf("(%d) %s", p.refCounter, name)
}

func (p *callgrindProfiler) writeCalls(w *errWriter, ref *callRef, memory uint64) {
	for _, entry := range ref.children {
		w.printf("cfl=%s\n", p.getRef(entry.file))
		w.printf("cfn=%s\n", p.getRef(entry.name))
		w.print("calls=1 0 0\n")
		w.printf("%d %d %d\n", 0, entry.duration, memory)
	}
}

func (p *callgrindProfiler) Start(t *lisp.Thread, fun lisp.Value) func() {
	if p.skipTrace(fun) {
		return func() {}
	}
	prettyLabel, _ := p.prettyFunName(fun)
	file := funNamespace(fun)
	if file == "" {
		file = "-"
	}
	// Mark the time and point of entry on the calling thread.
	p.incrementCallRef(t, prettyLabel, file)

	return func() {
		p.end(t)
	}
}

func newCallRef(name, file string, prev *callRef) *callRef {
	ms := &runtime.MemStats{}
	runtime.ReadMemStats(ms)
	return &callRef{
		name:        name,
		file:        file,
		prev:        prev,
		startMemory: ms.TotalAlloc,
		start:       time.Now(),
	}
}

// Generates a call ref so the same item can be located again
func (p *callgrindProfiler) incrementCallRef(t *lisp.Thread, name, file string) *callRef {
	p.mu.Lock()
	defer p.mu.Unlock()
	current, ok := p.callRefs[t.ID()]
	if !ok || current == nil {
		current = p.root
	}
	frameRef := newCallRef(name, file, current)
	current.children = append(current.children, frameRef)
	p.callRefs[t.ID()] = frameRef
	return frameRef
}

// Finds a call ref for the current scope of t
func (p *callgrindProfiler) getCallRefAndDecrement(t *lisp.Thread) *callRef {
	current, ok := p.callRefs[t.ID()]
	if !ok || current == nil {
		panic(fmt.Sprintf("Unset thread ref %d", t.ID()))
	}
	if current.prev == p.root {
		delete(p.callRefs, t.ID())
	} else {
		p.callRefs[t.ID()] = current.prev
	}
	return current
}

func (p *callgrindProfiler) end(t *lisp.Thread) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return
	}
	ref := p.getCallRefAndDecrement(t)
	ref.duration = time.Since(ref.start)
	if ref.duration == 0 {
		ref.duration = 1
	}
	ms := &runtime.MemStats{}
	runtime.ReadMemStats(ms)
	ref.endMemory = ms.TotalAlloc
	memory := ref.endMemory - ref.startMemory
	w := &errWriter{w: p.writer}
	// Write what function we've been observing and where to find it
	w.printf("fl=%s\n", p.getRef(ref.file))
	w.printf("fn=%s\n", p.getRef(ref.name))
	// Output timing
	w.printf("%d %d %d\n", 0, ref.duration, memory)
	// Output the things we called
	p.writeCalls(w, ref, memory)
	// and end the entry
	w.print("\n")
	if w.err != nil {
		p.writeErr = w.err
	}
}
