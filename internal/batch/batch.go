// Package batch scores many text pairs concurrently.
//
// Input is JSON Lines, one pair per line:
//
//	{"id": "a1", "text1": "...", "text2": "...", "method": "semantic"}
//
// Output is one JSON line per input pair, written in input order. A pair that
// fails produces an error line; it never aborts the run.
package batch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/simscore/internal/document"
	simerrors "github.com/Aman-CERP/simscore/internal/errors"
	"github.com/Aman-CERP/simscore/internal/similarity"
)

// MaxLineBytes bounds a single input line.
const MaxLineBytes = 16 << 20

// Pair is one input line.
type Pair struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Text1  *string         `json:"text1"`
	Text2  *string         `json:"text2"`
	Method string          `json:"method,omitempty"`
}

// Outcome is one output line.
type Outcome struct {
	ID         json.RawMessage `json:"id,omitempty"`
	Line       int             `json:"line"`
	Score      *float64        `json:"score,omitempty"`
	MethodUsed string          `json:"method_used,omitempty"`
	Percentage string          `json:"percentage,omitempty"`
	Error      *ErrorInfo      `json:"error,omitempty"`
}

// ErrorInfo describes a failed pair.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Summary totals a run.
type Summary struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

func (s *Summary) add(o Outcome) {
	s.Total++
	if o.Error != nil {
		s.Failed++
	} else {
		s.Succeeded++
	}
}

// Runner scores pairs on a bounded worker pool.
type Runner struct {
	svc           *similarity.Service
	pool          *ants.Pool
	workers       int
	defaultMethod string
	logger        *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner) error

// WithWorkers sets the worker pool size.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithWorkers(n int) Option {
	return func(r *Runner) error {
		if n < 1 {
			n = 1
		}
		r.workers = n
		return nil
	}
}

// WithDefaultMethod sets the method for lines that omit one. Default is lexical.
func WithDefaultMethod(method string) Option {
	return func(r *Runner) error {
		if _, err := similarity.ParseMethod(method); err != nil {
			return err
		}
		r.defaultMethod = method
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) error {
		if logger != nil {
			r.logger = logger
		}
		return nil
	}
}

// NewRunner creates a runner. Call Release when done.
func NewRunner(svc *similarity.Service, opts ...Option) (*Runner, error) {
	if svc == nil {
		return nil, errors.New("similarity service is required")
	}

	r := &Runner{
		svc:           svc,
		workers:       max(runtime.NumCPU(), 1),
		defaultMethod: string(similarity.MethodLexical),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(r.workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	r.pool = pool
	return r, nil
}

// Workers returns the pool size.
func (r *Runner) Workers() int {
	return r.workers
}

// Release releases the worker pool.
// The runner should not be used after calling Release.
func (r *Runner) Release() {
	if r.pool != nil {
		r.pool.Release()
	}
}

type indexed struct {
	index   int
	outcome Outcome
}

// Run reads pairs from in and writes one outcome per pair to out.
// It returns early only on read, write or context errors.
func (r *Runner) Run(ctx context.Context, in io.Reader, out io.Writer) (Summary, error) {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	results := make(chan indexed, r.workers)

	g.Go(func() error {
		var wg sync.WaitGroup
		defer func() {
			wg.Wait()
			close(results)
		}()

		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)

		index, lineNo := 0, 0
		for sc.Scan() {
			lineNo++
			if err := gctx.Err(); err != nil {
				return err
			}
			line := bytes.TrimSpace(sc.Bytes())
			if len(line) == 0 {
				continue
			}

			i, n := index, lineNo
			data := bytes.Clone(line)
			index++

			wg.Add(1)
			err := r.pool.Submit(func() {
				defer wg.Done()
				o := r.score(gctx, n, data)
				select {
				case results <- indexed{index: i, outcome: o}:
				case <-gctx.Done():
				}
			})
			if err != nil {
				wg.Done()
				return fmt.Errorf("submit line %d: %w", n, err)
			}
		}
		if err := sc.Err(); err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		return nil
	})

	var summary Summary
	g.Go(func() error {
		enc := json.NewEncoder(out)
		pending := make(map[int]Outcome)
		next := 0
		for res := range results {
			pending[res.index] = res.outcome
			for {
				o, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				if err := enc.Encode(o); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				summary.add(o)
				next++
			}
		}
		return nil
	})

	err := g.Wait()
	summary.Duration = time.Since(start)

	r.logger.Info("batch_done",
		slog.Int("total", summary.Total),
		slog.Int("failed", summary.Failed),
		slog.Int("workers", r.workers),
		slog.Duration("duration", summary.Duration))

	return summary, err
}

// score parses and scores a single line.
func (r *Runner) score(ctx context.Context, lineNo int, data []byte) Outcome {
	o := Outcome{Line: lineNo}

	var p Pair
	if err := json.Unmarshal(data, &p); err != nil {
		o.Error = errorInfo(simerrors.ValidationError(fmt.Sprintf("line %d is not a JSON object: %v", lineNo, err), err))
		return o
	}
	o.ID = p.ID
	if p.Text1 == nil || p.Text2 == nil {
		o.Error = errorInfo(simerrors.ValidationError(fmt.Sprintf("line %d: text1 and text2 are required", lineNo), nil))
		return o
	}

	method := p.Method
	if method == "" {
		method = r.defaultMethod
	}

	res, err := r.svc.CompareString(ctx, document.Clean(*p.Text1), document.Clean(*p.Text2), method)
	if err != nil {
		r.logger.Debug("batch_pair_failed",
			slog.Int("line", lineNo),
			slog.String("error", err.Error()))
		o.Error = errorInfo(err)
		return o
	}

	o.Score = &res.Score
	o.MethodUsed = res.Method
	o.Percentage = res.Percentage()
	return o
}

func errorInfo(err error) *ErrorInfo {
	code := simerrors.GetCode(err)
	if code == "" {
		code = simerrors.ErrCodeInternal
	}
	msg := err.Error()
	var se *simerrors.SimError
	if errors.As(err, &se) {
		msg = se.Message
	}
	return &ErrorInfo{Code: code, Message: msg}
}
