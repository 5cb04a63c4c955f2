package embed

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	simerrors "github.com/Aman-CERP/simscore/internal/errors"
)

var errHandleClosed = errors.New("encoder handle closed")

// Loader builds an encoder. A Handle calls it at most once successfully.
type Loader func(ctx context.Context) (Embedder, error)

// Handle is the process-wide, load-once reference to the encoder.
//
// The first Get starts a single load; concurrent callers wait for that load
// and never observe a partially built encoder. A waiter whose context ends
// stops waiting, but the load itself runs on until it finishes or the handle
// is closed. Once loaded, Get is a lock-free atomic read. A failed load opens
// a circuit breaker, so later calls fail fast with ModelUnavailable until
// retryAfter has passed.
type Handle struct {
	model string
	load  Loader

	mu       sync.Mutex
	inflight *loadCall
	closed   bool

	current atomic.Pointer[loadedEmbedder]
	breaker *simerrors.CircuitBreaker
	loads   atomic.Int64
}

type loadedEmbedder struct {
	Embedder
	loadedAt time.Time
}

// loadCall is one in-progress load. done is closed once e or err is set.
type loadCall struct {
	done   chan struct{}
	cancel context.CancelFunc
	e      Embedder
	err    error
}

// NewHandle creates a handle for model (used in errors and status before the
// encoder is loaded). retryAfter is how long a failed load is remembered.
func NewHandle(model string, load Loader, retryAfter time.Duration) *Handle {
	return &Handle{
		model: model,
		load:  load,
		breaker: simerrors.NewCircuitBreaker("encoder",
			simerrors.WithMaxFailures(1),
			simerrors.WithResetTimeout(retryAfter),
		),
	}
}

// NewHandleFromOptions creates a handle that loads the encoder described by opts.
func NewHandleFromOptions(opts Options, retryAfter time.Duration) *Handle {
	return NewHandle(opts.DisplayModel(), LoaderFor(opts), retryAfter)
}

// NewLoadedHandle wraps an already constructed encoder.
func NewLoadedHandle(e Embedder) *Handle {
	h := NewHandle(e.ModelName(), func(context.Context) (Embedder, error) { return e, nil }, time.Second)
	h.current.Store(&loadedEmbedder{Embedder: e, loadedAt: time.Now()})
	return h
}

// Get returns the encoder, loading it on first use.
// Errors are always ModelUnavailable, wrapping the load failure or ctx.Err().
func (h *Handle) Get(ctx context.Context) (Embedder, error) {
	if l := h.current.Load(); l != nil {
		return l.Embedder, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, simerrors.ModelUnavailable(h.model, err)
	}

	h.mu.Lock()
	if l := h.current.Load(); l != nil {
		h.mu.Unlock()
		return l.Embedder, nil
	}
	if h.closed {
		h.mu.Unlock()
		return nil, simerrors.ModelUnavailable(h.model, errHandleClosed)
	}
	call := h.inflight
	if call == nil {
		if !h.breaker.Allow() {
			h.mu.Unlock()
			return nil, simerrors.ModelUnavailable(h.model, h.breaker.LastError())
		}
		// The load outlives the caller that started it; Close cancels it
		loadCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		call = &loadCall{done: make(chan struct{}), cancel: cancel}
		h.inflight = call
		go h.runLoad(loadCtx, call)
	}
	h.mu.Unlock()

	select {
	case <-call.done:
		if call.err != nil {
			return nil, simerrors.ModelUnavailable(h.model, call.err)
		}
		return call.e, nil
	case <-ctx.Done():
		return nil, simerrors.ModelUnavailable(h.model, ctx.Err())
	}
}

func (h *Handle) runLoad(ctx context.Context, call *loadCall) {
	defer call.cancel()

	start := time.Now()
	h.loads.Add(1)
	slog.Info("encoder_loading", slog.String("model", h.model))

	e, err := h.load(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()
	defer close(call.done)
	h.inflight = nil

	if err == nil && h.closed {
		_ = e.Close()
		e, err = nil, errHandleClosed
	}
	if err != nil {
		// A load cancelled by Close is not evidence the model is broken
		if ctx.Err() == nil {
			h.breaker.RecordFailure(err)
		}
		slog.Warn("encoder_load_failed",
			slog.String("model", h.model),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()))
		call.err = err
		return
	}

	h.breaker.RecordSuccess()
	h.current.Store(&loadedEmbedder{Embedder: e, loadedAt: time.Now()})
	slog.Info("encoder_loaded",
		slog.String("model", e.ModelName()),
		slog.Int("dimensions", e.Dimensions()),
		slog.Duration("duration", time.Since(start)))
	call.e = e
}

// Preload loads the encoder now instead of on first use.
func (h *Handle) Preload(ctx context.Context) error {
	_, err := h.Get(ctx)
	return err
}

// Loaded reports whether the encoder has been loaded.
func (h *Handle) Loaded() bool {
	return h.current.Load() != nil
}

// ModelName returns the loaded encoder's model name, or the configured one.
func (h *Handle) ModelName() string {
	if l := h.current.Load(); l != nil {
		return l.ModelName()
	}
	return h.model
}

// LoadAttempts returns how many times the loader has been invoked.
func (h *Handle) LoadAttempts() int64 {
	return h.loads.Load()
}

// HandleStatus is a point-in-time view of the handle.
type HandleStatus struct {
	Model      string    `json:"model"`
	Loaded     bool      `json:"loaded"`
	Dimensions int       `json:"dimensions,omitempty"`
	LoadedAt   time.Time `json:"loaded_at,omitempty"`
	Breaker    string    `json:"breaker"`
	LastError  string    `json:"last_error,omitempty"`
}

// Status reports the handle state without triggering a load.
func (h *Handle) Status() HandleStatus {
	st := HandleStatus{
		Model:   h.ModelName(),
		Breaker: h.breaker.State().String(),
	}
	if l := h.current.Load(); l != nil {
		st.Loaded = true
		st.Dimensions = l.Dimensions()
		st.LoadedAt = l.loadedAt
	}
	if err := h.breaker.LastError(); err != nil {
		st.LastError = err.Error()
	}
	return st
}

// Close closes the loaded encoder, if any, and cancels a load in progress.
// Later calls to Get fail with ModelUnavailable.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	if h.inflight != nil {
		h.inflight.cancel()
	}
	l := h.current.Swap(nil)
	if l == nil {
		return nil
	}
	return l.Close()
}
