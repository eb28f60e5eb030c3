package mathtex

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Readiness is the load state of the rendering engine on a host.
// It only moves forward: NotLoaded, Loading, Ready.
type Readiness int

const (
	NotLoaded Readiness = iota
	Loading
	Ready
)

func (r Readiness) String() string {
	switch r {
	case NotLoaded:
		return "not-loaded"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// KaTeXVersion is the engine release served by DefaultEngineAssets.
const KaTeXVersion = "0.16.9"

const katexCDN = "https://cdnjs.cloudflare.com/ajax/libs/KaTeX/" + KaTeXVersion

// EngineAssets locates the three rendering engine resources.
type EngineAssets struct {
	Stylesheet string
	Core       string
	AutoRender string
}

// DefaultEngineAssets returns the public CDN locations of the engine.
func DefaultEngineAssets() EngineAssets {
	return EngineAssets{
		Stylesheet: katexCDN + "/katex.min.css",
		Core:       katexCDN + "/katex.min.js",
		AutoRender: katexCDN + "/contrib/auto-render.min.js",
	}
}

// EngineHost is a document the engine can be injected into.
type EngineHost interface {
	// EnginePresent reports whether the engine is already available.
	EnginePresent(ctx context.Context) (bool, error)
	// InjectStylesheet attaches a stylesheet and returns once it is loaded.
	InjectStylesheet(ctx context.Context, href string) error
	// InjectScript attaches a script and returns once it has executed.
	InjectScript(ctx context.Context, src string) error
}

// defaultLoadTimeout bounds one load sequence.
const defaultLoadTimeout = 30 * time.Second

// LoadHandle tracks the single load sequence of a RendererLoader.
// Ready is closed when the engine is usable. Done is closed when the
// sequence ends, whether it succeeded or not.
type LoadHandle struct {
	ready chan struct{}
	done  chan struct{}
	err   error // written before done is closed
}

func newLoadHandle() *LoadHandle {
	return &LoadHandle{
		ready: make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Ready returns a channel closed once the engine is usable.
func (h *LoadHandle) Ready() <-chan struct{} { return h.ready }

// Done returns a channel closed once the load sequence has ended.
func (h *LoadHandle) Done() <-chan struct{} { return h.done }

// Err returns why the sequence failed. It is nil while the sequence runs
// and after success.
func (h *LoadHandle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// RendererLoader injects the rendering engine into a host at most once.
//
// The load sequence is: stylesheet, core script, then auto-render script,
// each started only after the previous one finished. A failed script leaves
// the loader in Loading for the rest of its life; there is no retry.
type RendererLoader struct {
	host    EngineHost
	assets  EngineAssets
	timeout time.Duration
	logger  *log.Logger

	mu        sync.Mutex
	readiness Readiness
	handle    *LoadHandle
	waiters   []func()
	cancel    context.CancelFunc
	closed    bool
	wg        sync.WaitGroup
}

// LoaderOption configures a RendererLoader.
type LoaderOption func(*RendererLoader)

// WithEngineAssets overrides where the engine resources are loaded from.
func WithEngineAssets(a EngineAssets) LoaderOption {
	return func(l *RendererLoader) {
		l.assets = a
	}
}

// WithLoadTimeout bounds the whole load sequence.
func WithLoadTimeout(d time.Duration) LoaderOption {
	return func(l *RendererLoader) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithLoaderLogger sets the logger for load diagnostics.
func WithLoaderLogger(lg *log.Logger) LoaderOption {
	return func(l *RendererLoader) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// NewRendererLoader creates a loader for host in the NotLoaded state.
// Panics if host is nil (programmer error).
func NewRendererLoader(host EngineHost, opts ...LoaderOption) *RendererLoader {
	if host == nil {
		panic("mathtex: NewRendererLoader requires an EngineHost")
	}
	l := &RendererLoader{
		host:    host,
		assets:  DefaultEngineAssets(),
		timeout: defaultLoadTimeout,
		logger:  discardLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Readiness returns the current load state.
func (l *RendererLoader) Readiness() Readiness {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readiness
}

// EnsureLoaded starts the load sequence on the first call and returns its
// handle. Every later call returns the same handle and injects nothing.
//
// If the engine is already present on the host, readiness becomes Ready
// without injecting anything. After Close, a loader that never started
// returns a handle that is already done with ErrClosed.
func (l *RendererLoader) EnsureLoaded() *LoadHandle {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handle != nil {
		return l.handle
	}

	h := newLoadHandle()
	l.handle = h
	if l.closed {
		h.err = ErrClosed
		close(h.done)
		return h
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	l.cancel = cancel
	l.readiness = Loading
	l.wg.Add(1)
	go l.load(ctx, cancel, h)
	return h
}

// Close cancels a running load sequence and waits for it to return, so
// the host is not touched once Close is done. Close is idempotent.
func (l *RendererLoader) Close() {
	l.mu.Lock()
	l.closed = true
	cancel := l.cancel
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	l.wg.Wait()
}

// OnReady registers fn to run once when readiness becomes Ready.
// If the engine is already Ready, fn runs immediately on the caller's
// goroutine. Registering does not start loading.
func (l *RendererLoader) OnReady(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	if l.readiness == Ready {
		l.mu.Unlock()
		fn()
		return
	}
	l.waiters = append(l.waiters, fn)
	l.mu.Unlock()
}

// Wait starts loading if needed and blocks until the engine is Ready.
// Errors wrap ErrRendererUnavailable, together with the load failure or
// the context error.
func (l *RendererLoader) Wait(ctx context.Context) error {
	h := l.EnsureLoaded()
	select {
	case <-h.Ready():
		return nil
	case <-h.Done():
		select {
		case <-h.Ready():
			return nil
		default:
		}
		return fmt.Errorf("%w: %w", ErrRendererUnavailable, h.Err())
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrRendererUnavailable, ctx.Err())
	}
}

func (l *RendererLoader) load(ctx context.Context, cancel context.CancelFunc, h *LoadHandle) {
	defer l.wg.Done()
	defer cancel()

	start := time.Now()
	present, err := l.probe(ctx)
	if err != nil {
		l.logger.Debug("engine presence probe failed", "err", err)
	}
	if present {
		l.logger.Debug("engine already present")
	} else {
		err = l.run(ctx)
	}

	l.mu.Lock()
	if err == nil && l.closed {
		err = ErrClosed
	}
	if err != nil {
		l.mu.Unlock()
		l.logger.Warn("renderer load failed", "err", err, "elapsed", time.Since(start))
		h.err = err
		close(h.done)
		return
	}
	waiters := l.markReadyLocked()
	l.mu.Unlock()
	l.logger.Debug("renderer ready", "elapsed", time.Since(start))
	finish(h, waiters)
}

// probe reports whether the engine is already on the host. A probe error
// counts as "not present" and the caller loads anyway.
func (l *RendererLoader) probe(ctx context.Context) (present bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			present, err = false, fmt.Errorf("internal error: %v", r)
		}
	}()
	return l.host.EnginePresent(ctx)
}

// run performs the injection sequence. A stylesheet failure is logged and
// does not stop the sequence: the engine renders without it.
func (l *RendererLoader) run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if err := l.host.InjectStylesheet(ctx, l.assets.Stylesheet); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.logger.Warn("engine stylesheet failed to load", "href", l.assets.Stylesheet, "err", err)
	}
	if err := l.host.InjectScript(ctx, l.assets.Core); err != nil {
		return fmt.Errorf("loading %s: %w", l.assets.Core, err)
	}
	if err := l.host.InjectScript(ctx, l.assets.AutoRender); err != nil {
		return fmt.Errorf("loading %s: %w", l.assets.AutoRender, err)
	}
	return nil
}

// markReadyLocked publishes readiness and takes the pending waiters.
// Caller must hold l.mu.
func (l *RendererLoader) markReadyLocked() []func() {
	l.readiness = Ready
	waiters := l.waiters
	l.waiters = nil
	return waiters
}

// finish runs the waiters, then releases everyone blocked on the handle.
// A caller unblocked by Ready therefore observes every callback done.
func finish(h *LoadHandle, waiters []func()) {
	for _, fn := range waiters {
		fn()
	}
	close(h.ready)
	close(h.done)
}
